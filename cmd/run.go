package cmd

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/field-infer/field-infer/pipeline"
	"github.com/field-infer/field-infer/pipeline/comm"
	"github.com/field-infer/field-infer/pipeline/demo"
	"github.com/field-infer/field-infer/pipeline/likelihood"
	"github.com/field-infer/field-infer/pipeline/sampler"
	"github.com/field-infer/field-infer/pipeline/store"
)

// truth are the demo model parameters the mock data is generated from.
var truth = map[string]map[string]float64{
	"breg": {"b0": 3, "psi0": 27},
	"brnd": {"rms": 1},
}

// runCmd performs a full inference on demo mock data.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Bayesian inference over the demo field model",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg := &pipeline.RunConfig{}
		if configPath != "" {
			loaded, err := pipeline.LoadRunConfig(configPath)
			if err != nil {
				logrus.Fatalf("loading run config: %v", err)
			}
			cfg = loaded
		}

		model, err := demo.NewModel(pixels)
		if err != nil {
			logrus.Fatalf("building demo model: %v", err)
		}
		meas, cov, err := model.Mock(truth, mockNoiseStd, cfg.SeedTracer+1)
		if err != nil {
			logrus.Fatalf("generating mock data: %v", err)
		}
		like, err := likelihood.NewEnsemble(meas, cov, nil)
		if err != nil {
			logrus.Fatalf("building likelihood: %v", err)
		}

		mc := sampler.MonteCarlo{Seed: samplerSeed}
		start := time.Now()
		p, err := runGroup(model, like, cfg, mc)
		if err != nil {
			logrus.Fatalf("run failed: %v", err)
		}
		logrus.Infof("finished in %s", time.Since(start))

		report(p)

		if dbPath != "" {
			persist(p)
		}
	},
}

// runGroup runs the pipeline across the configured worker group and returns
// rank 0's pipeline for reporting.
func runGroup(model *demo.Model, like likelihood.Likelihood, cfg *pipeline.RunConfig, mc sampler.MonteCarlo) (*pipeline.Pipeline, error) {
	if workers <= 1 {
		p, err := pipeline.New(pipeline.Options{
			Factories:  model.Factories,
			Simulator:  model.Simulator,
			Likelihood: like,
			Config:     cfg,
		})
		if err != nil {
			return nil, err
		}
		return p, p.Run(context.Background(), mc)
	}

	group, err := comm.NewGroup(workers)
	if err != nil {
		return nil, err
	}
	pipelines := make([]*pipeline.Pipeline, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for rank := 0; rank < workers; rank++ {
		member, err := group.Member(rank)
		if err != nil {
			return nil, err
		}
		p, err := pipeline.New(pipeline.Options{
			Factories:  model.Factories,
			Simulator:  model.Simulator,
			Likelihood: like,
			Config:     cfg,
			Comm:       member,
		})
		if err != nil {
			return nil, err
		}
		pipelines[rank] = p
		wg.Add(1)
		go func(rank int, p *pipeline.Pipeline) {
			defer wg.Done()
			// Identical sampler seeds keep the replicated protocol's
			// proposals aligned across workers.
			errs[rank] = p.Run(context.Background(), mc)
		}(rank, p)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", rank, err)
		}
	}
	return pipelines[0], nil
}

func report(p *pipeline.Pipeline) {
	evidence, err := p.Evidence()
	if err != nil {
		logrus.Fatalf("reading evidence: %v", err)
	}
	evidenceErr, err := p.EvidenceErr()
	if err != nil {
		logrus.Fatalf("reading evidence error: %v", err)
	}
	fmt.Printf("log evidence: %g ± %g\n", evidence, evidenceErr)

	summary, err := p.PosteriorSummary()
	if err != nil {
		logrus.Fatalf("summarizing posterior: %v", err)
	}
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("posterior summary:")
	for _, name := range names {
		s := summary[name]
		fmt.Printf("  %s: %.4g +%.4g -%.4g\n", name, s.Median, s.ErrUp, s.ErrLo)
	}
}

func persist(p *pipeline.Pipeline) {
	st, err := store.Open(dbPath)
	if err != nil {
		logrus.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	evidence, _ := p.Evidence()
	evidenceErr, _ := p.EvidenceErr()
	table, err := p.SamplesUnit()
	if err != nil {
		logrus.Fatalf("reading samples: %v", err)
	}
	id, err := st.SaveRun(table.Names, evidence, evidenceErr, table.Rows)
	if err != nil {
		logrus.Fatalf("persisting run: %v", err)
	}
	logrus.Infof("run persisted as %s", id)
}

// listCmd lists persisted runs.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted inference runs",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if dbPath == "" {
			logrus.Fatalf("--db is required for list")
		}
		st, err := store.Open(dbPath)
		if err != nil {
			logrus.Fatalf("opening store: %v", err)
		}
		defer st.Close()
		runs, err := st.ListRuns()
		if err != nil {
			logrus.Fatalf("listing runs: %v", err)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  logZ=%g±%g  dim=%d\n",
				r.ID, r.CreatedAt.Format(time.RFC3339), r.LogEvidence, r.LogEvidenceErr, len(r.Parameters))
		}
	},
}

func init() {
	listCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to read")
}
