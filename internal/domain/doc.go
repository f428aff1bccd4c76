// Package domain models Queensland road crash open data.
//
// # Data Source
//
// Crash locations come from the Department of Transport and Main Roads
// "Road crash locations" CSV on data.qld.gov.au. Each row is one crash,
// keyed by Crash_Ref_Number, with GDA94 coordinates (EPSG:4283).
//
// # Source Data Conventions
//
// Date format:
//
//	Crash_Year, Crash_Month and Crash_Hour are separate columns.
//	The month is a full English month name: "2019", "March", "17".
//	They are combined into a single UTC timestamp by [parseCrashDate].
//
// Speed limit:
//
//	Descriptive ranges such as "60 km/h" or "0 - 50 km/h". The upper
//	bound is the second-to-last whitespace token.
//
// Road surface condition:
//
//	"Sealed - Dry", "Sealed - Wet", "Unsealed - Dry", ... Sealed and Dry
//	are derived from the prefix and suffix of the label.
//
// Lighting condition:
//
//	"Daylight", "Darkness - Lighted", "Darkness - Not lighted", "Dawn/Dusk".
//	See [ParseLighting] for the mapping to day/lit/partial flags.
//
// Missing location:
//
//	Crash_Longitude_GDA94 = "0" marks a crash without spatial data. Such rows
//	are never stored because the location column is required.
//
// Counts:
//
//	Casualty and unit counts are integers. Blank or malformed values are
//	treated as zero.
//
// # Severity Index
//
// Crashes are ranked by a weighted score of casualties and units involved:
//
//	30*fatal + 10*hospitalised + 5*medically treated + 1*minor injury
//	  + 2*(car + motorcycle + truck + bus + bicycle + pedestrian + other)
//
// See [SeverityIndex].
//
// # Classification
//
// Six free-text labels (severity, nature, type, roadway feature, traffic
// control, atmospheric condition) are resolved to reference-table ids by a
// [Lookup] built once at startup.
package domain
