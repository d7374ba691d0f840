// Package domain models archived taxi-claim trip records and the cleaning
// rules that turn heterogeneous source CSV files into one canonical table.
//
// # Data Source
//
// Trip claims arrive as a compressed archive of monthly CSV exports. Every file
// carries a header row, but header spelling drifts between months
// ("CardNo", "Card No", "card_no") and some exports add a unit suffix in
// parentheses ("Taxi Fare (SGD)").
//
// # Source Data Conventions
//
// Compound interval fields:
//
//	travel_date  "05/03/2015 TO 05/03/2015"
//	travel_time  "08:00 TO 08:45"
//
// The two halves are combined positionally: first date + first time is the
// start, second date + second time is the end. Dates are day first, so
// "05/03/2015" is 5 March 2015.
//
// Sentinel nulls:
//
//	"nil" and "NULL" (any case, surrounding whitespace allowed) mean missing.
//	Empty cells are missing as well.
//
// Geometry columns:
//
//	pickup_x, pickup_y, destination_x, destination_y are projected grid
//	coordinates duplicated by the latitude/longitude columns and are dropped.
//
// Column spelling:
//
//	The longitude columns are spelled "pickup_longtitude" and
//	"destination_longtitude" in the source and in the dashboard contract.
//	The spelling is preserved.
//
// # Missing Values
//
// Missingness is carried explicitly: a table cell is a [Value] whose zero value
// is missing, and the typed [Trip] record uses [Null] fields. No magic string or
// NaN is ever used as a marker inside the pipeline; the missing marker becomes
// an empty cell only when a table is written out.
//
// # Completeness Gate
//
// distance_run is the dataset's completeness gate: a row whose distance_run is
// missing after sentinel replacement is dropped and counted in the [Report].
package domain
