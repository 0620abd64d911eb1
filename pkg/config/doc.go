// Package config describes a featurepipe run: where the input dataset comes
// from, the ordered list of processors to fit over it, and where the output
// table and final pipeline state are written.
//
// # Usage
//
//	cfg, err := config.Load("pipeline.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A configuration file looks like:
//
//	name: hotels
//	input:
//	  path: ${DATA_DIR}/train.csv
//	  schema:
//	    site_name: uint8
//	    is_mobile: bool
//	output:
//	  path: out/features.parquet
//	  state_path: out/state.json
//	processors:
//	  - type: cast
//	    cast: {orig_destination_distance: float32}
//	  - type: add_columns
//	    add:
//	      - {name: guests, expr: "srch_adults_cnt + srch_children_cnt", type: uint8}
//	  - type: drop_columns
//	    columns: [date_time]
//	  - type: column_splitter
//	    threshold: 10
//
// # Environment Variable Substitution
//
// ${VAR_NAME} anywhere in the file is replaced by the variable's value
// before parsing. Unset variables become empty strings.
package config
