// Package anomaly flags statistically unusual readings in a consolidated
// table.
//
// Detect(rows, sensor, opts) annotates every input row, in order, with an
// anomaly flag and a non-negative severity score for the named sensor. Three
// methods are supported:
//
//	zscore   |value − mean| / std over the whole series; flags score > threshold.
//	         Most reliable for single extreme spikes regardless of magnitude.
//	iqr      distance outside [Q1 − k·IQR, Q3 + k·IQR], normalized by IQR;
//	         robust to the outliers already present in the series.
//	rolling  z-score against a centered moving window, shrinking at the
//	         boundaries; catches local anomalies a global method would miss.
//	         Known limitation: an extreme outlier inflates the std of its own
//	         window and can partially suppress its own detection.
//
// Degenerate input is data, not a fault: fewer than two usable observations,
// or a spread of exactly zero, yields all-zero scores and no flags. Only an
// unknown method or an unknown sensor is an error.
package anomaly
