// Package domain models gridded atmospheric-instrument observations and the
// per-day filtering, merging, and layer-extraction transforms applied to them.
//
// # Data Source
//
// Observations come from ground-based vertically-pointing instruments (cloud
// radar and depolarization lidar) at Arctic observatories. Each raw NetCDF
// file holds one instrument's time/height grid for a stretch of hours; file
// boundaries do not line up with calendar days. The hydration adapter turns
// each file into an InstrumentRecord: a dimension table plus a variable table
// with integer-coded values.
//
// # Canonical Names
//
// Raw file names arrive in several site-specific shapes. They are rewritten to
// carry a sortable canonical token before any filtering:
//
//	DYYYY-MM-DDTHH-MM-SS  →  e.g. "D1998-09-01T12-00-00.mrg.corrected.nc"
//
// The token marks the file's first observation. Lexical order of canonical
// names is chronological order, which the day-window selection relies on.
//
// # Epoch and Offset
//
// Every record stores time as a scalar "epoch" (Unix seconds of the first
// observation or the owning day's UTC midnight) plus a time-dimensioned
// "offset" variable of seconds since the epoch. epoch+offset[i] is
// non-decreasing within a record and strictly increasing across the files
// selected for one day.
//
// # Fused Mask Codes
//
// Grid fusion reconciles the lidar and radar cloud masks onto one 30 s / 90 m
// grid. Each cell carries a signed code that encodes both the cloud decision
// and its provenance:
//
//	 3  cloud, both instruments agree
//	 2  cloud seen by radar only (lidar below threshold or flagged)
//	 1  cloud seen by lidar only (radar below threshold or flagged)
//	 0  clear, or not evaluated (below the elevation floor)
//	-1  clear per lidar while radar carries flags
//	-2  clear per radar while lidar carries flags
//	-3  clear, both instruments agree
//	 4 / -4  cloud / clear per radar with an empty lidar window
//	 5 / -5  cloud / clear per lidar with an empty radar window
//	-6  no samples from any instrument
//
// The flag value for "no valid measurement" is the int8 minimum (-128),
// distinct from a true zero reading.
package domain
