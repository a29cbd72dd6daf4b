// Package harness runs player filter scenarios written in YAML.
//
// A scenario describes a small network (servers, players, their per-server
// membership and sessions), a filter document and the expected chain:
//
//	name: banned_regulars
//	description: "Banned players among those who played in February"
//	servers:
//	  - name: Lobby
//	    uuid: 00000000-0000-7000-8000-00000000a001
//	players:
//	  - name: Bob
//	    uuid: 00000000-0000-7000-8000-00000000b002
//	    registered: 2024-02-15
//	    servers:
//	      - server: Lobby
//	        banned: true
//	    sessions:
//	      - server: Lobby
//	        start: 2024-02-20T12:00:00Z
//	        minutes: 90
//	query:
//	  - kind: playedBetween
//	    parameters: {after: 2024-02-01, before: 2024-02-29}
//	  - kind: banned
//	    parameters: {value: "true"}
//	expect:
//	  steps:
//	    - {kind: playedBetween, size: 1}
//	    - {kind: banned, size: 1}
//	  players: [Bob]
//
// The dataset is written in one unit of work, the query runs through the
// built-in player filters, and the outcome is compared with the expect
// block. RunWithGolden additionally snapshots the chain trace.
package harness
