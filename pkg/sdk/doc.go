// Package chronik provides a Go client for the chronik search API and a
// debounced controller for search-as-you-type user interfaces.
//
// # Client
//
//	client, _ := chronik.NewClient("http://localhost:8080", userID)
//	resp, err := client.Search(ctx, chronik.Query{Q: "meeting anna", Limit: 10})
//
// Groups come back in a fixed entity order; items within a group are best first.
// Snippets contain <mark> highlights and are safe to embed once passed through
// RenderSnippet.
//
// # Controller
//
//	ctrl := chronik.NewController(client)
//	defer ctrl.Shutdown()
//	ctrl.Subscribe(func(s chronik.State) { render(s) })
//	ctrl.SetQuery("me")
//	ctrl.SetQuery("mee") // only the last keystroke within the debounce window is searched
package chronik
