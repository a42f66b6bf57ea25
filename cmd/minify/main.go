// Command minify writes minified copies of the templates and static assets
// to dist/, which the server prefers in production.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var mediaTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

func main() {
	var (
		outDir    = flag.String("out", "dist", "Output directory")
		templates = flag.String("templates", "templates", "Template source directory")
		static    = flag.String("static", "static", "Static asset source directory")
	)
	flag.Parse()

	m := newMinifier()
	total := 0
	for _, dir := range []string{*templates, *static} {
		n, err := minifyTree(m, dir, filepath.Join(*outDir, filepath.Base(dir)))
		if err != nil {
			log.Fatalf("Failed to minify %s: %v", dir, err)
		}
		total += n
	}
	fmt.Printf("Minified %d files into %s\n", total, *outDir)
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("application/javascript", js.Minify)
	return m
}

// minifyTree minifies every known asset under srcDir into the same relative
// path under dstDir and copies anything else unchanged.
func minifyTree(m *minify.M, srcDir, dstDir string) (int, error) {
	count := 0
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out := src
		if mediaType, ok := mediaTypes[filepath.Ext(path)]; ok {
			if out, err = m.Bytes(mediaType, src); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			count++
			fmt.Printf("%s: %d bytes -> %d bytes (%.1f%% reduction)\n",
				path, len(src), len(out), reduction(len(src), len(out)))
		}
		return os.WriteFile(dst, out, 0644)
	})
	return count, err
}

func reduction(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}
