package sources

// YouTube implementation is split across three files by responsibility:
//   innertube.go — Innertube API constants, types, and low-level HTTP primitives
//   captions.go  — caption cue fetching (watch-page scrape with engagement
//                  panel and ANDROID player fallbacks)
//   dataapi.go   — Data API v3 wrappers: video details, search, comments,
//                  trending, categories, channel statistics
