// Package timeseries provides time series data structures and utilities.
//
// A Series pairs observation times with values. Times are decimal years
// (2004.5 is the middle of 2004), which is the axis the trend models in
// this module expect: a seasonal cycle has period 1.
//
// # Creating a Series
//
// Create a time series from slices:
//
//	series, err := timeseries.NewWithTimes(times, values)
//
// or from calendar timestamps:
//
//	series, err := timeseries.FromTimestamps(stamps, values)
//
// # Loading from CSV
//
// Load time series data from CSV files:
//
//	// Load a specific column, times come from a "t" or "date" column
//	series, err := timeseries.LoadCSVColumn("ethane.csv", "c2h6")
//
//	opts := &timeseries.CSVOptions{
//	    DateColumn:  "date",
//	    ValueColumn: "c2h6",
//	    DateFormat:  "2006-01-02",
//	    HasHeader:   true,
//	}
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
//
// Rows with empty, NA, NaN or null values are skipped.
//
// # Basic Statistics
//
//	mean := series.Mean()
//	std := series.Std()
//	median := series.Median()
//
// Fitting code calls Validate to reject unsorted or non-finite input;
// Sort returns a time-ordered copy.
package timeseries
