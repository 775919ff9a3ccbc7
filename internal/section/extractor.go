package section

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/internal/shmoo"
)

// Options configures how a dump is cut into per-site sections
type Options struct {
	Separator         string
	TitlePattern      string
	SitePattern       string
	BoundaryPattern   string
	TerminatorPattern string
	DropPatterns      []string
	SkipCount         int
	PlaceholderTitle  string
}

// DefaultOptions returns the patterns of the stock tester log format
func DefaultOptions() Options {
	return Options{
		Separator:         `-{10,}\s*TestMethod\s+Shmoo\s*-{10,}`,
		TitlePattern:      `TITLE\s+:\s+(\S+)`,
		SitePattern:       `(?i)---\s+site\s+(\d+)\s+/\s+\d+\s+\(`,
		BoundaryPattern:   `^\s*V\s+\+`,
		TerminatorPattern: `^Site\s+\d+:`,
		DropPatterns:      []string{`^WARNING`, `^#`},
		SkipCount:         3,
		PlaceholderTitle:  "NoTitle",
	}
}

// Section is one filtered (test, site) slice of a dump
type Section struct {
	Title string
	Site  int
	Lines []string
}

// Extractor splits dumps into per-test directories of site files
type Extractor struct {
	opts      Options
	separator *regexp.Regexp
	title     *regexp.Regexp
	site      *regexp.Regexp
	filter    *Filter
}

// NewExtractor compiles the extraction patterns
func NewExtractor(opts Options) (*Extractor, error) {
	if opts.PlaceholderTitle == "" {
		return nil, fmt.Errorf("placeholder title must not be empty")
	}
	separator, err := regexp.Compile(opts.Separator)
	if err != nil {
		return nil, fmt.Errorf("compile separator pattern: %w", err)
	}
	title, err := regexp.Compile(opts.TitlePattern)
	if err != nil {
		return nil, fmt.Errorf("compile title pattern: %w", err)
	}
	site, err := regexp.Compile(opts.SitePattern)
	if err != nil {
		return nil, fmt.Errorf("compile site pattern: %w", err)
	}
	filter, err := NewFilter(opts.BoundaryPattern, opts.TerminatorPattern, opts.DropPatterns, opts.SkipCount)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		opts:      opts,
		separator: separator,
		title:     title,
		site:      site,
		filter:    filter,
	}, nil
}

// Split cuts dump content into filtered sections. Text before the first
// separator is discarded, as are sections without a site index or with no
// lines left after filtering.
func (x *Extractor) Split(content string) []Section {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	parts := x.separator.Split(content, -1)
	if len(parts) < 2 {
		return nil
	}

	var sections []Section
	for i, part := range parts[1:] {
		kept := trimBlank(x.filter.Apply(strings.Split(part, "\n")))
		if len(kept) == 0 {
			continue
		}
		text := strings.Join(kept, "\n")

		title := x.opts.PlaceholderTitle
		if m := x.title.FindStringSubmatch(text); m != nil {
			title = Sanitize(m[1])
		} else {
			log.Warn().Int("section", i+1).Str("title", title).Msg("TITLE not found, using placeholder")
		}

		m := x.site.FindStringSubmatch(text)
		if m == nil {
			log.Warn().Int("section", i+1).Str("title", title).Msg("Site number not found, skipping section")
			continue
		}
		site, err := strconv.Atoi(m[1])
		if err != nil {
			log.Warn().Err(err).Int("section", i+1).Msg("Invalid site number, skipping section")
			continue
		}

		sections = append(sections, Section{Title: title, Site: site, Lines: kept})
	}
	return sections
}

// Extract writes every section of the dump to
// <outputRoot>/<dump>/<title>/<dump>_<title>_site<N>.log and returns the
// sorted test directories it wrote into. A section that cannot be written is
// logged and skipped; only a dump that cannot be read is an error.
func (x *Extractor) Extract(dumpPath, outputRoot string) ([]string, error) {
	content, err := os.ReadFile(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}

	base := DumpBase(dumpPath)
	dirs := make(map[string]struct{})
	written := make(map[string]bool)
	for _, s := range x.Split(string(content)) {
		dir := filepath.Join(outputRoot, base, s.Title)
		name := fmt.Sprintf("%s_%s_site%d.log", base, s.Title, s.Site)
		path := filepath.Join(dir, name)
		if written[path] {
			log.Warn().Str("file", name).Msg("Duplicate test and site, overwriting earlier section")
		}
		if err := writeSection(dir, path, s.Lines); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to write section, skipping")
			continue
		}
		written[path] = true
		dirs[dir] = struct{}{}
		log.Debug().Str("file", name).Msg("Extracted section")
	}

	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func writeSection(dir, path string, lines []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create test directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(shmoo.JoinLines(lines)), 0o644); err != nil {
		return fmt.Errorf("write section: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[\\/:"*?<>|]+`)

// Sanitize replaces each run of characters that are illegal in file names
// with a single underscore.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// DumpBase returns the dump file name without directory or extension
func DumpBase(dumpPath string) string {
	name := filepath.Base(dumpPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
