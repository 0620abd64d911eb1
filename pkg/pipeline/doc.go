// Package pipeline implements featurepipe's feature-extraction core: an
// ordered list of processors that rewrite an arrow table while threading a
// State that records each column's logical type and its classification into
// numerical, categorical and numerical-categorical groups.
//
// # Overview
//
// A fit pass runs every processor's FitTransform once, in order. Each stage
// receives exactly the table and State produced by the stage before it and
// returns new ones; neither input is modified. After every stage the State
// schema holds exactly the table's columns.
//
// A transform pass replays every processor's Transform over new data
// without touching any State.
//
// # Basic Usage
//
//	cast, err := pipeline.NewCast(map[string]schema.LogicalType{"score": schema.Int32})
//	if err != nil {
//		return err
//	}
//	p := pipeline.NewFeatureExtractorPipeline(
//		[]pipeline.Processor{cast, pipeline.NewColumnSplitter(3)},
//		pipeline.WithName("hotels"),
//		pipeline.WithLogger(logger),
//	)
//
//	out, state, err := p.FitTransform(ctx, tbl)
//	if err != nil {
//		return err
//	}
//	defer out.Release()
//
//	fmt.Println(state.CategoricalColumns)
//
// # Ownership
//
// Tables are arrow records. Every table returned by a processor or pipeline
// is a new reference owned by the caller, who must Release it. Tables passed
// in are borrowed and never released.
package pipeline
