package domain

// Canonical column names. The longitude columns keep the source spelling
// because the dashboard contract depends on it.
const (
	ColCardNo               = "card_no"
	ColDivisionCode         = "division_code"
	ColPickupLatitude       = "pickup_latitude"
	ColPickupLongitude      = "pickup_longtitude"
	ColDestinationLatitude  = "destination_latitude"
	ColDestinationLongitude = "destination_longtitude"
	ColDistanceRun          = "distance_run"
	ColTaxiFare             = "taxi_fare"
	ColAdmin                = "admin"
	ColTotalFare            = "total_fare"
	ColStartDatetime        = "start_datetime"
	ColEndDatetime          = "end_datetime"
	ColTripDurationMin      = "trip_duration_min"

	ColTravelDate = "travel_date"
	ColTravelTime = "travel_time"
)

// ContractColumns are the columns the dashboard reads from the consolidated CSV.
var ContractColumns = []string{
	ColCardNo,
	ColDivisionCode,
	ColPickupLatitude,
	ColPickupLongitude,
	ColDestinationLatitude,
	ColDestinationLongitude,
	ColDistanceRun,
	ColTaxiFare,
	ColAdmin,
	ColTotalFare,
	ColStartDatetime,
	ColEndDatetime,
	ColTripDurationMin,
}

// GeometryColumns are projected coordinates duplicated by lat/lon and dropped on load.
var GeometryColumns = []string{"pickup_x", "pickup_y", "destination_x", "destination_y"}

// RequiredColumns must be present in every source file after header normalization.
var RequiredColumns = []string{ColTravelDate, ColTravelTime, ColTaxiFare, ColAdmin, ColDistanceRun}
