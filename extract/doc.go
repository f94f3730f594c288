// Package extract turns uploaded files into text with page structure.
//
// A Registry routes files to extractors by extension. The PDF extractor
// records the rune span of each page so downstream chunks can carry page
// ranges for citations.
package extract
