/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"storyboarder/internal/assets"
	"storyboarder/internal/config"
	"storyboarder/internal/crash"
	"storyboarder/internal/domain"
	"storyboarder/internal/export"
	"storyboarder/internal/library"
	applog "storyboarder/internal/log"
	"storyboarder/internal/script"
	"storyboarder/internal/storage"
	"storyboarder/internal/telemetry"
	"storyboarder/internal/ui"
	"storyboarder/internal/version"
)

func usage() {
	fmt.Println("Storyboarder — scene production toolkit")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  storyboarder version|-v|--version       Show version")
	fmt.Println("  storyboarder init <dir>                  Create a new project at <dir>")
	fmt.Println("  storyboarder import <dir> <file>         Replace scenes from a pipe/tab delimited file")
	fmt.Println("  storyboarder scenes <dir>                List scenes in playback order")
	fmt.Println("  storyboarder check <dir>                 Report broken image links")
	fmt.Println("  storyboarder export <dir> [out]          Write STORYBOARD_EXPORT.zip to [out] (default: exports/)")
	fmt.Println("  storyboarder sheet <dir> [out]           Write a PDF contact sheet")
	fmt.Println("  storyboarder scan <dir> <root>           Index a footage root into the project's library")
	fmt.Println("  storyboarder search <dir> <query>        Search the footage index by file name")
	fmt.Println("  storyboarder ui [<dir>]                  Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// .env is optional; it feeds the SBD_* overrides below.
	_ = godotenv.Load()
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	var st *storage.Store
	defer func() { crash.Recover(st) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Storyboarder — scene production toolkit")
		fmt.Println(version.String())

	case "init":
		if len(args) < 3 {
			fmt.Println("init requires <dir>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		l.Info("init project", slog.String("root", abs))
		h, err := storage.Init(abs, domain.Document{})
		if err != nil {
			fail(l, "init failed", err)
		}
		st = h
		fmt.Println("Created project at", abs)

	case "import":
		if len(args) < 4 {
			fmt.Println("import requires <dir> and <file>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		data, err := os.ReadFile(args[3])
		if err != nil {
			fail(l, "read import file failed", err)
		}
		scenes := script.ConvertText(string(data))
		st.ReplaceScenes(scenes)
		if err := st.Save(); err != nil {
			fail(l, "save after import failed", err)
		}
		telemetry.Event("import", map[string]any{"scenes": len(scenes)})
		fmt.Printf("Imported %d scenes (previous collection replaced).\n", len(scenes))

	case "scenes":
		if len(args) < 3 {
			fmt.Println("scenes requires <dir>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		for _, sc := range st.SortedScenes() {
			mark := " "
			if sc.HasCharacterImage {
				mark = "C"
			}
			fmt.Printf("%-12s %s  %s\n", sc.Code, mark, sc.EnText)
		}

	case "check":
		if len(args) < 3 {
			fmt.Println("check requires <dir>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		scenes := st.SortedScenes()
		links := assets.CheckLinks(context.Background(), scenes)
		broken := assets.BrokenCount(links)
		telemetry.Event("check", map[string]any{"scenes": len(scenes), "broken": broken})
		for _, sc := range scenes {
			if links[sc.ID] {
				fmt.Printf("%-12s missing: %s\n", sc.Code, sc.ImagePath())
			}
		}
		fmt.Printf("%d scenes checked, %d broken links.\n", len(scenes), broken)

	case "export":
		if len(args) < 3 {
			fmt.Println("export requires <dir>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		out := exportDir(st, args)
		scenes := st.SortedScenes()
		path, missing, err := export.WriteBundle(context.Background(), scenes, out)
		if err != nil {
			fail(l, "export failed", err)
		}
		telemetry.Event("export", map[string]any{"scenes": len(scenes), "missing": len(missing)})
		fmt.Println("Wrote", path)
		for _, m := range missing {
			fmt.Println("  missing image:", m)
		}

	case "sheet":
		if len(args) < 3 {
			fmt.Println("sheet requires <dir>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		out := filepath.Join(exportDir(st, args), "contact_sheet.pdf")
		if err := export.WriteContactSheet(st.SortedScenes(), out); err != nil {
			fail(l, "contact sheet failed", err)
		}
		fmt.Println("Wrote", out)

	case "scan":
		if len(args) < 4 {
			fmt.Println("scan requires <dir> and <root>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		root, _ := filepath.Abs(args[3])
		db, err := library.OpenIndex(st.Root)
		if err != nil {
			fail(l, "open footage index failed", err)
		}
		defer func() { _ = db.Close() }()
		n, err := library.Scan(context.Background(), db, root)
		if err != nil {
			fail(l, "scan failed", err)
		}
		fmt.Printf("Indexed %d files under %s\n", n, root)

	case "search":
		if len(args) < 4 {
			fmt.Println("search requires <dir> and <query>")
			usage()
			os.Exit(2)
		}
		st = open(l, args[2])
		db, err := library.OpenIndex(st.Root)
		if err != nil {
			fail(l, "open footage index failed", err)
		}
		defer func() { _ = db.Close() }()
		hits, err := library.Search(context.Background(), db, args[3], 50)
		if err != nil {
			fail(l, "search failed", err)
		}
		for _, e := range hits {
			fmt.Printf("%-6s %s\n", e.Kind, e.Path)
		}
		fmt.Printf("%d match(es).\n", len(hits))

	case "ui":
		var dir string
		if len(args) >= 3 {
			dir = args[2]
		}
		if err := ui.Run(dir); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	default:
		usage()
	}
}

func open(l *slog.Logger, dir string) *storage.Store {
	abs, _ := filepath.Abs(dir)
	l.Info("open project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h
}

// exportDir resolves the destination directory: explicit argument, then the
// configured default, then the project's exports/ folder.
func exportDir(st *storage.Store, args []string) string {
	if len(args) >= 4 {
		out, _ := filepath.Abs(args[3])
		return out
	}
	if cfg, err := config.Load(); err == nil && cfg.Export.DefaultDir != "" {
		return cfg.Export.DefaultDir
	}
	return filepath.Join(st.Root, "exports")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
