// Command visualeditor-mcp serves the editor to AI agents over MCP stdio,
// sharing the desktop app's config and document store.
package main

import (
	"fmt"
	"os"

	editorApp "visualeditor/internal/app"
)

func main() {
	if err := editorApp.ServeMCP(); err != nil {
		fmt.Fprintln(os.Stderr, "visualeditor-mcp:", err)
		os.Exit(1)
	}
}
