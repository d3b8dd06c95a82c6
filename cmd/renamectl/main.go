// Command renamectl exposes the rename manager as an MCP stdio server,
// the shell-extension entry point spec.md leaves out of scope for the
// core engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/renameforge/renameforge/cache"
	"github.com/renameforge/renameforge/core"
)

// Config holds renamectl's runtime configuration, mirroring the
// teacher's flat Configuration-struct-plus-DefaultConfiguration shape.
type Config struct {
	ParallelOps           int
	DebugMode             bool
	DirCacheTTL           time.Duration
	ReplayCacheTTL        time.Duration
	RenameOnCollision     bool
}

// DefaultConfig returns settings auto-scaled to the host, per
// DefaultConfiguration's cpuCount-derived ParallelOps.
func DefaultConfig() *Config {
	parallelOps := runtime.NumCPU() * 2
	if parallelOps > 16 {
		parallelOps = 16
	}
	return &Config{
		ParallelOps:       parallelOps,
		DebugMode:         false,
		DirCacheTTL:       core.DirExistenceCacheExpiration,
		ReplayCacheTTL:    core.ReplaceResultCacheExpiration,
		RenameOnCollision: true,
	}
}

func main() {
	config := DefaultConfig()

	var (
		parallelOps = flag.Int("parallel-ops", config.ParallelOps, "Max concurrent rename operations")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		version     = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("renameforge v1.0.0\n")
		fmt.Printf("Go: %s\n", runtime.Version())
		fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	}

	config.ParallelOps = *parallelOps
	config.DebugMode = *debugMode
	setupLogging(config)

	log.Printf("🚀 Starting renameforge MCP server")
	log.Printf("📊 Config: ParallelOps=%d Debug=%v", config.ParallelOps, config.DebugMode)

	dirCache := cache.NewDirExistenceCache(config.DirCacheTTL)
	watcher, err := cache.NewDirWatcher(dirCache, config.DebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize directory watcher: %v", err)
	}
	defer watcher.Close()

	replayCache, err := cache.NewReplaceResultCache(config.ReplayCacheTTL)
	if err != nil {
		log.Fatalf("Failed to initialize replace-result cache: %v", err)
	}
	defer replayCache.Close()

	renamer, err := core.NewDefaultFileRenamer(config.ParallelOps, core.RenamerOptions{
		RenameOnCollision: config.RenameOnCollision,
	})
	if err != nil {
		log.Fatalf("Failed to initialize commit worker pool: %v", err)
	}
	defer renamer.Release()

	sessions := newSessionRegistry(dirCache, replayCache, renamer, watcher, config.DebugMode)

	s := server.NewMCPServer(
		"renameforge",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if err := registerTools(s, sessions); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✅ Server ready - waiting for connections...")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func setupLogging(config *Config) {
	if config.DebugMode {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// sessionRegistry owns one *core.Manager per base directory a caller
// has opened, keyed by that path — an MCP stdio conversation has no
// concept of "the currently open window" the way Explorer does, so a
// caller names its session by the directory it is renaming within.
type sessionRegistry struct {
	dirCache    *cache.DirExistenceCache
	replayCache *cache.ReplaceResultCache
	renamer     core.FileRenamer
	watcher     *cache.DirWatcher
	debug       bool

	factory core.ItemFactory

	mu       sessionMutex
	managers map[string]*core.Manager
}

type sessionMutex = chanMutex

// chanMutex is a channel-backed mutex (teacher's style favors plain
// sync primitives; this one is channel-based only because sessions are
// looked up far more than they are created, and a buffered channel
// gives us TryLock-free, allocation-free reuse across both paths).
type chanMutex chan struct{}

func newChanMutex() chanMutex {
	m := make(chanMutex, 1)
	m <- struct{}{}
	return m
}

func (m chanMutex) Lock()   { <-m }
func (m chanMutex) Unlock() { m <- struct{}{} }

func newSessionRegistry(dirCache *cache.DirExistenceCache, replayCache *cache.ReplaceResultCache, renamer core.FileRenamer, watcher *cache.DirWatcher, debug bool) *sessionRegistry {
	return &sessionRegistry{
		dirCache:    dirCache,
		replayCache: replayCache,
		renamer:     renamer,
		watcher:     watcher,
		debug:       debug,
		factory:     core.NewDefaultItemFactory(),
		mu:          newChanMutex(),
		managers:    make(map[string]*core.Manager),
	}
}

func (r *sessionRegistry) get(basePath string) *core.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[basePath]; ok {
		return m
	}

	m := core.NewManager(basePath, core.ManagerOptions{
		DirCache:    r.dirCache,
		ReplayCache: r.replayCache,
		Renamer:     r.renamer,
		Debug:       r.debug,
	})
	r.managers[basePath] = m
	return m
}

func registerTools(s *server.MCPServer, sessions *sessionRegistry) error {
	s.AddTool(mcp.NewTool("rename_add_directory",
		mcp.WithDescription("Enumerate a directory into a rename session"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Directory to enumerate and to scope this session to")),
		mcp.WithBoolean("recursive", mcp.Description("Recurse into subdirectories")),
		mcp.WithString("file_pattern", mcp.Description("Glob pattern to filter entries, e.g. *.txt")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args, _ := request.Params.Arguments.(map[string]interface{})
		recursive, _ := args["recursive"].(bool)
		pattern, _ := args["file_pattern"].(string)

		mgr := sessions.get(basePath)
		items, err := core.EnumerateDirectory(sessions.factory, basePath, recursive, pattern)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("enumerate: %v", err)), nil
		}

		sessions.watcher.Watch(basePath)
		for _, item := range items {
			if err := mgr.AddItem(item); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("add item: %v", err)), nil
			}
		}

		return mcp.NewToolResultText(fmt.Sprintf("added %d items from %s", len(items), basePath)), nil
	})

	s.AddTool(mcp.NewTool("rename_configure",
		mcp.WithDescription("Configure the regex pattern, replacement and flags for a session, and run a preview"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to configure")),
		mcp.WithString("pattern", mcp.Description("Search regex pattern")),
		mcp.WithString("replacement", mcp.Description("Replacement template, supports $1 $2 ...")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Whether matching is case sensitive")),
		mcp.WithString("flags", mcp.Description("Comma-separated flags: name_only,extension_only,enumerate_items,exclude_folders,exclude_files,exclude_subfolder_items")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args, _ := request.Params.Arguments.(map[string]interface{})

		mgr := sessions.get(basePath)
		adapter, ok := mgr.GetRegexAdapter().(*core.DefaultRegexAdapter)
		if !ok {
			return mcp.NewToolResultError("session adapter does not support direct configuration"), nil
		}

		if pattern, ok := args["pattern"].(string); ok {
			adapter.SetPattern(pattern)
		}
		if replacement, ok := args["replacement"].(string); ok {
			adapter.SetReplacement(replacement)
		}
		if caseSensitive, ok := args["case_sensitive"].(bool); ok {
			adapter.SetCaseSensitive(caseSensitive)
		}
		if flagsStr, ok := args["flags"].(string); ok {
			if err := mgr.PutFlags(parseFlags(flagsStr)); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		} else if err := mgr.TriggerPreview(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return renderItems(mgr)
	})

	s.AddTool(mcp.NewTool("rename_status",
		mcp.WithDescription("Report item/selected/rename counts and current flags for a session"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to inspect")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mgr := sessions.get(basePath)

		status := map[string]any{
			"item_count":     mgr.GetItemCount(),
			"selected_count": mgr.GetSelectedCount(),
			"rename_count":   mgr.GetRenameCount(),
			"flags":          uint32(mgr.GetFlags()),
		}
		return toolResultJSON(status)
	})

	s.AddTool(mcp.NewTool("rename_list_items",
		mcp.WithDescription("List every item in a session along with its computed new name"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to list")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderItems(sessions.get(basePath))
	})

	s.AddTool(mcp.NewTool("rename_set_selected",
		mcp.WithDescription("Select or deselect an item by id"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session the item belongs to")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithBoolean("selected", mcp.Required(), mcp.Description("New selection state")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args, _ := request.Params.Arguments.(map[string]interface{})
		idFloat, _ := args["id"].(float64)
		selected, _ := args["selected"].(bool)

		mgr := sessions.get(basePath)
		item, err := mgr.GetItemByID(int(idFloat))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		item.SetSelected(selected)
		return mcp.NewToolResultText("ok"), nil
	})

	s.AddTool(mcp.NewTool("rename_reset",
		mcp.WithDescription("Clear every item's pending rename in a session and drop the session's items"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to reset")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := sessions.get(basePath).Reset(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})

	s.AddTool(mcp.NewTool("rename_commit",
		mcp.WithDescription("Execute the pending renames for a session on disk"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to commit")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, core.DefaultOperationTimeout)
			defer cancel()
		}

		result, err := sessions.get(basePath).Rename(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(result)
	})

	s.AddTool(mcp.NewTool("rename_shutdown",
		mcp.WithDescription("Tear down a session, releasing its resources"),
		mcp.WithString("base_path", mcp.Required(), mcp.Description("Session to shut down")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		basePath, err := request.RequireString("base_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := sessions.get(basePath).Shutdown(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("ok"), nil
	})

	return nil
}

func renderItems(mgr *core.Manager) (*mcp.CallToolResult, error) {
	count := mgr.GetItemCount()
	out := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		item, err := mgr.GetItemByIndex(i)
		if err != nil {
			continue
		}
		newName, hasNew := item.NewName()
		out = append(out, map[string]any{
			"id":            item.ID(),
			"original_name": item.OriginalName(),
			"parent_path":   item.ParentPath(),
			"is_folder":     item.IsFolder(),
			"selected":      item.Selected(),
			"new_name":      newName,
			"will_rename":   hasNew,
		})
	}
	return toolResultJSON(out)
}

func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func parseFlags(s string) core.Flags {
	var flags core.Flags
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "name_only":
			flags |= core.NameOnly
		case "extension_only":
			flags |= core.ExtensionOnly
		case "enumerate_items":
			flags |= core.EnumerateItems
		case "exclude_folders":
			flags |= core.ExcludeFolders
		case "exclude_files":
			flags |= core.ExcludeFiles
		case "exclude_subfolder_items":
			flags |= core.ExcludeSubfolderItems
		}
	}
	return flags
}
