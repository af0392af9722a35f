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
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"time"

	"storycanvas/internal/backend"
	"storycanvas/internal/canvas"
	"storycanvas/internal/config"
	"storycanvas/internal/crash"
	"storycanvas/internal/export"
	applog "storycanvas/internal/log"
	"storycanvas/internal/session"
	"storycanvas/internal/snapshot"
	"storycanvas/internal/telemetry"
	"storycanvas/internal/version"
)

func usage() {
	fmt.Println("StoryCanvas — storybook page editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  storycanvas version|-v|--version                  Show version")
	fmt.Println("  storycanvas fonts                                  List fonts available on the backend")
	fmt.Println("  storycanvas create <name> [gender]                 Create a new story under its dev name")
	fmt.Println("  storycanvas load <story> [gender]                  Load a story and print a page summary")
	fmt.Println("  storycanvas export <story> [gender]                Persist text-box geometry for a story")
	fmt.Println("  storycanvas approve <story> [gender]               Promote a story's geometry to production")
	fmt.Println("  storycanvas render <story> <page> <out.png> [gender]  Render one page to a PNG file")
	fmt.Println("  storycanvas pdf <story> <kid> <gender> <pages>     Generate a personalized PDF")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	story := ""
	defer func() { crash.Recover(story) }()

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	// The telemetry default client reads the env; surface the config
	// opt-in there so later lazy inits see the same decision.
	if cfg.General.TelemetryOptIn {
		_ = os.Setenv("SCV_TELEMETRY_OPT_IN", "1")
	}
	telemetry.InitDefault()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	ctx := context.Background()
	client := backend.NewClient(cfg.Backend.BaseURL, token)
	client.SetTimeout(time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond)
	gender := cfg.Editor.Gender

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("StoryCanvas — storybook page editor")
		fmt.Println(version.String())
		return
	case "fonts":
		fonts, err := client.ListFonts(ctx)
		if err != nil {
			l.Error("font listing failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		for _, f := range fonts {
			fmt.Printf("%s\t%s\n", f.FontFamily, f.URL)
		}
		return
	case "create":
		if len(args) < 3 {
			fmt.Println("create requires <name>")
			usage()
			os.Exit(2)
		}
		if len(args) >= 4 {
			gender = args[3]
		}
		name := args[2]
		l.Info("create story", slog.String("name", name), slog.String("gender", gender))
		slug, err := client.CreateStory(ctx, name, gender)
		if err != nil {
			l.Error("create failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		story = slug
		telemetry.Event("story_created", nil)
		fmt.Println("Created story", story)
		return
	case "load":
		if len(args) < 3 {
			fmt.Println("load requires <story>")
			usage()
			os.Exit(2)
		}
		story = args[2]
		if len(args) >= 4 {
			gender = args[3]
		}
		sess, err := loadStory(ctx, client, story, gender)
		if err != nil {
			l.Error("load failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded story: %s (%s)\n", story, gender)
		fmt.Printf("Pages: %d\n", sess.Len())
		for _, p := range sess.Pages() {
			fmt.Printf("  %s: %d text boxes\n", p.Name, len(p.TextBoxes))
		}
		return
	case "export", "approve":
		if len(args) < 3 {
			fmt.Printf("%s requires <story>\n", args[1])
			usage()
			os.Exit(2)
		}
		story = args[2]
		if len(args) >= 4 {
			gender = args[3]
		}
		sess, err := loadStory(ctx, client, story, gender)
		if err != nil {
			l.Error("load failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		renderer := snapshot.NewRenderer(client, fontCatalog(ctx, client, l))
		o := export.NewOrchestrator(client, sess, renderer, story, gender)
		if args[1] == "export" {
			err = o.ExportText(ctx)
		} else {
			err = o.ApproveProd(ctx)
		}
		if err != nil {
			l.Error(args[1]+" failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		telemetry.Event("geometry_"+args[1], nil)
		fmt.Println("Done.")
		return
	case "render":
		if len(args) < 5 {
			fmt.Println("render requires <story> <page> <out.png>")
			usage()
			os.Exit(2)
		}
		story = args[2]
		index, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Println("page must be an index:", err)
			os.Exit(2)
		}
		out := args[4]
		if len(args) >= 6 {
			gender = args[5]
		}
		if err := renderPage(ctx, client, l, story, gender, index, out); err != nil {
			l.Error("render failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", out)
		return
	case "pdf":
		if len(args) < 6 {
			fmt.Println("pdf requires <story> <kid> <gender> <pages>")
			usage()
			os.Exit(2)
		}
		story = args[2]
		kid := args[3]
		gender = args[4]
		total, err := strconv.Atoi(args[5])
		if err != nil {
			fmt.Println("pages must be a number:", err)
			os.Exit(2)
		}
		l.Info("generate pdf", slog.String("story", story), slog.Int("pages", total))
		url, err := client.GeneratePDF(ctx, story, kid, gender, total)
		if err != nil {
			l.Error("pdf generation failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		telemetry.Event("pdf_generated", map[string]any{"pages": total})
		fmt.Println(url)
		return
	}

	usage()
}

func loadStory(ctx context.Context, client *backend.Client, story, gender string) (*session.Session, error) {
	assets, err := client.FetchStoryAssets(ctx, story, gender)
	if err != nil {
		return nil, err
	}
	sess := session.New()
	if err := sess.LoadStory(assets); err != nil {
		return nil, err
	}
	return sess, nil
}

func fontCatalog(ctx context.Context, client *backend.Client, l *slog.Logger) *snapshot.FontCatalog {
	catalog := snapshot.NewFontCatalog(client)
	fonts, err := client.ListFonts(ctx)
	if err != nil {
		l.Warn("font listing failed, text renders without glyphs", slog.Any("err", err))
		return catalog
	}
	for _, f := range fonts {
		catalog.Register(f.FontFamily, f.URL)
	}
	return catalog
}

func renderPage(ctx context.Context, client *backend.Client, l *slog.Logger, story, gender string, index int, out string) error {
	sess, err := loadStory(ctx, client, story, gender)
	if err != nil {
		return err
	}
	eng := canvas.NewEngine(sess)
	eng.SetNaturalSizer(&canvas.Measurer{Fetch: client})
	if err := eng.SwitchPage(index); err != nil {
		return err
	}
	// No post function configured, so this measures the page's layers
	// synchronously; the renderer needs the states up front.
	eng.Reconcile(ctx)

	renderer := snapshot.NewRenderer(client, fontCatalog(ctx, client, l))
	img, err := renderer.Render(ctx, sess.Current(), sess.Layers())
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.Error("close output file", slog.Any("err", err))
		}
	}()
	return png.Encode(f, img)
}
