// Package pipeline runs an ordered list of named stages. Shell stages hand
// their command strings to scipipe, which owns scheduling, concurrency,
// atomic output handling and skip-if-up-to-date semantics. Native stages run
// in-process and always recompute their outputs.
package pipeline

import (
	"fmt"
	"log"

	sp "github.com/scipipe/scipipe"
)

// Stage is a single pipeline target.
type Stage struct {
	Name   string
	Active bool
	Run    func() error
}

// When marks a stage inactive unless the condition holds. Inactive stages
// are announced and skipped, mirroring conditionally-enabled QC modules.
func (s *Stage) When(active bool) *Stage {
	s.Active = active
	return s
}

// Native returns a stage backed by an in-process function.
func Native(name string, run func() error) *Stage {
	return &Stage{Name: name, Active: true, Run: run}
}

// Shell returns a stage that assembles a scipipe workflow when the stage is
// reached and blocks until the workflow completes. The workflow is built
// lazily so that stage wiring can read files produced by earlier stages.
func Shell(name string, workers int, build func(wf *sp.Workflow)) *Stage {
	return &Stage{Name: name, Active: true, Run: func() error {
		wf := sp.NewWorkflow(name, workers)
		build(wf)
		wf.Run()
		return nil
	}}
}

// Pipeline is an ordered set of stages. Order is the dependency order:
// a stage may assume every earlier active stage has completed.
type Pipeline struct {
	Name   string
	Stages []*Stage
}

// Targets lists the stage names in run order.
func (p *Pipeline) Targets() []string {
	names := make([]string, len(p.Stages))
	for i := range p.Stages {
		names[i] = p.Stages[i].Name
	}
	return names
}

func (p *Pipeline) stageIndex(target string) (int, error) {
	for i := range p.Stages {
		if p.Stages[i].Name == target {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: no stage named %q", p.Name, target)
}

// RunTo runs stages in declared order up to and including target.
func (p *Pipeline) RunTo(target string) error {
	last, err := p.stageIndex(target)
	if err != nil {
		return err
	}
	for _, s := range p.Stages[:last+1] {
		if !s.Active {
			log.Printf("%s: skipping inactive stage %s", p.Name, s.Name)
			continue
		}
		log.Printf("%s: running stage %s", p.Name, s.Name)
		if err := s.Run(); err != nil {
			return fmt.Errorf("%s: stage %s: %w", p.Name, s.Name, err)
		}
	}
	return nil
}

// Run runs every active stage.
func (p *Pipeline) Run() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("%s: pipeline has no stages", p.Name)
	}
	return p.RunTo(p.Stages[len(p.Stages)-1].Name)
}
