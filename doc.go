// Package lore provides an embedded Go client for the lore retrieval and
// agent engine. It wires the document store, the hybrid search core, and
// the agent loop in-process, without going through the HTTP API.
//
//	client, _ := lore.New(ctx,
//	    lore.WithSQLite("lore.db"),
//	    lore.WithProvider(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_, _ = client.UpsertDocument(ctx, lore.Document{
//	    ID:       "getting-started",
//	    Title:    "Getting Started",
//	    Content:  "Install the CLI and run lore serve.",
//	    Category: "docs",
//	})
//
//	hits, _ := client.Search(ctx, "how do I install", lore.SearchOptions{Limit: 5})
//	answer, _ := client.Ask(ctx, "What is 2+2, and what does the install doc say?")
package lore
