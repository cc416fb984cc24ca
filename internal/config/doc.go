// Package config loads topicview's settings.
//
// Settings come from four layers, each overriding the one below:
//
//	┌─────────────────────────────┐
//	│  4. Command line flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. TOPICVIEW_* variables   │
//	├─────────────────────────────┤
//	│  2. config.toml             │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The file is TOML with one table per section:
//
//	[server]
//	url = "wss://forum.example/socket"
//	relative_path = "/forum"
//
//	[view]
//	language = "en-GB"
//	fade = "250ms"
//
//	[log]
//	level = "debug"
//
// # Sub-packages
//
//   - loader: TOML file and environment loading into maps
//   - watcher: fsnotify-based change notification for live reload
package config
