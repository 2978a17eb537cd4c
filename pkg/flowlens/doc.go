/*
Package flowlens provides structural analysis of editor flow graphs.

# Overview

A workspace is an ordered set of flows. Each flow is a directed graph of
typed nodes whose output ports are wired to other nodes. flowlens measures
each flow (connections, depth, branches, cycles), runs a battery of rules
over it, recognizes common archetypes, and runs cross-flow rules over the
whole workspace.

The package is pure: it does no I/O and holds no state between calls.
Scheduling, caching, remote model backends and the HTTP surface live in
subpackages.

# Basic Usage

Decode an editor flows document and analyze one flow:

	ws, err := flowlens.ParseWorkspace(data)
	if err != nil {
	    log.Fatal(err)
	}

	engine := flowlens.NewEngine(flowlens.WithLogger(logger))
	for _, flow := range ws {
	    a := engine.AnalyzeFlow(ctx, flow)
	    fmt.Printf("%s: %s, %d issues\n", a.Label, a.Complexity, len(a.Issues))
	}

	for _, f := range engine.WorkspaceIssues(ctx, ws) {
	    fmt.Println(f.Title, f.Message)
	}

# Complexity

The score of a flow is

	nodes + 0.5*connections + 2*depth + 1.5*branches

A score above 50 is complex, above 20 medium, otherwise simple. Depth is
the longest simple walk from a source node (inject, http in, mqtt in,
websocket in). Wires to ids that are not in the flow count as connections
but are never followed.

# Rules

DefaultDetectors returns the per-flow rules:

  - disconnected: nodes with no wiring (inject needs an output, debug and
    http response need an input)
  - error-handling: error-prone nodes in a flow without a catch node
  - performance: more than 5 http request nodes, or function code matching
    a heavy-operation heuristic
  - security: http in endpoints accepting writes on a route with no
    auth, login or token segment

Custom rules are added with WithDetectors. A rule that panics is recovered
into a PanicError, logged, counted, and skipped; the flow is still analyzed.

# Subpackages

  - analyzer: workspace passes, result cache, history, scheduler
  - dispatch: remote model dispatch with local fallback
  - models: model catalog, selection, credentials, probing
  - llm: provider clients (OpenAI-compatible, Anthropic, Ollama)
  - prompt: analysis prompt templates
  - event: in-process event bus for change and completion notices
  - cache: fingerprinted, time-bounded result cache
  - ring: bounded newest-first history
  - registry: ordered, concurrency-safe keyed registry
  - source: flows document loading and file watching
  - store: persistent key/value storage (memory, SQLite)
  - server: HTTP routes
  - config: file configuration and validated settings
  - errors: error categories and typed errors
  - observability: logging, metrics, and tracing helpers

The flowlens command in cmd/flowlens wires these together.
*/
package flowlens
