package pipeline

import (
	"fmt"

	"github.com/ajitpratap0/featurepipe/pkg/config"
	"github.com/ajitpratap0/featurepipe/pkg/errors"
	"github.com/ajitpratap0/featurepipe/pkg/expr"
	"github.com/ajitpratap0/featurepipe/pkg/schema"
)

// Build creates processors from their configuration, in order
func Build(cfgs []config.ProcessorConfig) ([]Processor, error) {
	procs := make([]Processor, 0, len(cfgs))
	for i, cfg := range cfgs {
		proc, err := buildOne(cfg)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("processors[%d] (%s)", i, cfg.Type))
		}
		procs = append(procs, proc)
	}
	return procs, nil
}

func buildOne(cfg config.ProcessorConfig) (Processor, error) {
	switch cfg.Type {
	case config.ProcessorDropColumns:
		return NewDropColumns(cfg.Columns...), nil

	case config.ProcessorColumnSplitter:
		return NewColumnSplitter(cfg.Threshold), nil

	case config.ProcessorCast:
		to := make(map[string]schema.LogicalType, len(cfg.Cast))
		for name, s := range cfg.Cast {
			t, err := schema.ParseLogicalType(s)
			if err != nil {
				return nil, err
			}
			to[name] = t
		}
		return NewCast(to)

	case config.ProcessorAddColumns:
		derivations := make([]Derivation, 0, len(cfg.Add))
		for _, a := range cfg.Add {
			e, err := expr.Parse(a.Expr)
			if err != nil {
				return nil, err
			}
			t, err := schema.ParseLogicalType(a.Type)
			if err != nil {
				return nil, err
			}
			derivations = append(derivations, Derivation{Name: a.Name, Expr: e, Type: t})
		}
		return NewAddColumns(derivations...)

	default:
		return nil, errors.New(errors.ErrorTypeConfig, "unknown processor type").
			WithDetail("type", cfg.Type)
	}
}
