// Package profile builds a voice.Profile from a corpus of the author's
// published writing.
//
// The corpus lives under a content directory with one subdirectory per
// source. Markdown samples may carry YAML frontmatter; HTML samples are
// converted to markdown first. Statistics are computed locally and an
// optional Analyst adds tone and vocabulary judgements on top.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"gopkg.in/yaml.v3"
)

// Source names as recorded on a Sample.
const (
	SourceTweet      = "tweet"
	SourceNewsletter = "newsletter"
	SourceBook       = "book"
	SourceYoutube    = "youtube"
)

// sourceDirs maps corpus subdirectories to source names, in read order.
var sourceDirs = []struct {
	dir    string
	source string
}{
	{"tweets", SourceTweet},
	{"newsletters", SourceNewsletter},
	{"book", SourceBook},
	{"youtube", SourceYoutube},
}

// Sample is one piece of writing from the corpus.
type Sample struct {
	Source string
	Path   string
	Title  string
	Text   string
}

// frontmatter holds the keys the builder cares about.
type frontmatter struct {
	Title string `yaml:"title"`
	Draft bool   `yaml:"draft"`
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// ReadCorpus loads every .md, .html and .htm file from the known source
// subdirectories of dir. Missing subdirectories are skipped. Markdown
// samples marked draft: true are left out.
func ReadCorpus(dir string) ([]Sample, error) {
	var samples []Sample

	for _, sd := range sourceDirs {
		sourceDir := filepath.Join(dir, sd.dir)
		entries, err := os.ReadDir(sourceDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", sourceDir, err)
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(sourceDir, e.Name())
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext != ".md" && ext != ".html" && ext != ".htm" {
				continue
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}

			s := Sample{Source: sd.source, Path: path}
			switch ext {
			case ".md":
				meta, body := splitFrontmatter(string(raw))
				if meta.Draft {
					continue
				}
				s.Title = meta.Title
				s.Text = body
			default:
				md, err := mdConverter.ConvertString(string(raw))
				if err != nil {
					return nil, fmt.Errorf("converting %s: %w", path, err)
				}
				s.Text = md
			}
			samples = append(samples, s)
		}
	}

	return samples, nil
}

// splitFrontmatter separates a leading "---" YAML block from the body.
// Unparseable frontmatter is still stripped.
func splitFrontmatter(content string) (frontmatter, string) {
	var meta frontmatter
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---") {
		return meta, content
	}
	rest := content[3:]
	end := strings.Index(rest, "---\n")
	if end < 0 {
		return meta, content
	}
	_ = yaml.Unmarshal([]byte(rest[:end]), &meta)
	return meta, rest[end+4:]
}
