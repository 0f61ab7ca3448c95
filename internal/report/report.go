// Package report serializes a finished aggregation into the published output
// files: the combined JSON dataset, a CSV, per-category text files, the
// per-source statistics table and a delta against the previous snapshot.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"emaildomains/internal/aggregate"
	"emaildomains/pkg/domain"
	"emaildomains/pkg/logger"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

const (
	combinedFile = "email_domains.json"
	csvFile      = "email_domains.csv"
	statsFile    = "source_stats.json"
	deltaFile    = "delta.json"
)

// Writer renders aggregation results into an output directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer targeting the given directory. The directory is
// created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// snapshot is the sorted, serialization-ready view of a dataset.
type snapshot struct {
	Disposable   []string
	Free         []string
	PaidPersonal []string
}

func newSnapshot(d domain.Dataset) snapshot {
	return snapshot{
		Disposable:   d.Disposable.Sorted(),
		Free:         d.Free.Sorted(),
		PaidPersonal: d.PaidPersonal.Sorted(),
	}
}

func (s snapshot) equal(o snapshot) bool {
	return slicesEqual(s.Disposable, o.Disposable) &&
		slicesEqual(s.Free, o.Free) &&
		slicesEqual(s.PaidPersonal, o.PaidPersonal)
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Write renders every output file. When the domain content is unchanged from
// the previous combined file, the previous generation timestamp is preserved
// so that unchanged snapshots stay byte-identical. The effective metadata
// (with the timestamp actually written) is returned.
func (w *Writer) Write(ctx context.Context, res aggregate.Result, meta domain.Metadata) (domain.Metadata, error) {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return meta, fmt.Errorf("could not create output dir: %w", err)
	}

	snap := newSnapshot(res.Dataset)
	prev, prevGenerated := w.previous(ctx)

	if prev != nil && snap.equal(*prev) && !prevGenerated.IsZero() {
		logger.Info(ctx, "domain content unchanged, preserving previous timestamp",
			zap.Time("generated", prevGenerated))
		meta.GeneratedAt = prevGenerated
	}

	if err := w.writeCombined(snap, meta); err != nil {
		return meta, err
	}
	if err := w.writeCSV(snap); err != nil {
		return meta, err
	}
	if err := w.writeCategoryFiles(snap); err != nil {
		return meta, err
	}
	if err := w.writeStats(res.Stats, meta); err != nil {
		return meta, err
	}
	if err := w.writeDelta(ctx, snap, prev); err != nil {
		return meta, err
	}

	return meta, nil
}

// combinedDocument mirrors the published JSON structure for decoding the
// previous snapshot.
type combinedDocument struct {
	Metadata struct {
		Generated time.Time `json:"generated"`
	} `json:"metadata"`
	Domains struct {
		Disposable   []string `json:"disposable"`
		Free         []string `json:"free"`
		PaidPersonal []string `json:"paid_personal"`
	} `json:"domains"`
}

// previous loads the prior combined file if one exists. A missing or
// unparsable file just means there is nothing to diff against.
func (w *Writer) previous(ctx context.Context) (*snapshot, time.Time) {
	b, err := os.ReadFile(filepath.Join(w.dir, combinedFile))
	if err != nil {
		return nil, time.Time{}
	}

	var doc combinedDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		logger.Warn(ctx, "could not parse previous combined output, ignoring it", zap.Error(err))

		return nil, time.Time{}
	}

	return &snapshot{
		Disposable:   doc.Domains.Disposable,
		Free:         doc.Domains.Free,
		PaidPersonal: doc.Domains.PaidPersonal,
	}, doc.Metadata.Generated
}

// writeCombined streams the combined dataset document. The domain arrays run
// to tens of thousands of entries, so the document is encoded with jx instead
// of building an intermediate structure for encoding/json.
func (w *Writer) writeCombined(snap snapshot, meta domain.Metadata) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("metadata", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("generated", func(e *jx.Encoder) { e.Str(meta.GeneratedAt.Format(time.RFC3339)) })
				e.Field("run_id", func(e *jx.Encoder) { e.Str(meta.RunID.String()) })
				e.Field("total_domains", func(e *jx.Encoder) { e.Int(meta.TotalDomains) })
				e.Field("categories", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("disposable", func(e *jx.Encoder) { e.Int(len(snap.Disposable)) })
						e.Field("free", func(e *jx.Encoder) { e.Int(len(snap.Free)) })
						e.Field("paid_personal", func(e *jx.Encoder) { e.Int(len(snap.PaidPersonal)) })
					})
				})
			})
		})
		e.Field("domains", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("disposable", func(e *jx.Encoder) { encodeStrArr(e, snap.Disposable) })
				e.Field("free", func(e *jx.Encoder) { encodeStrArr(e, snap.Free) })
				e.Field("paid_personal", func(e *jx.Encoder) { encodeStrArr(e, snap.PaidPersonal) })
			})
		})
	})

	if err := os.WriteFile(filepath.Join(w.dir, combinedFile), e.Bytes(), 0o600); err != nil {
		return fmt.Errorf("could not write combined output: %w", err)
	}

	return nil
}

func encodeStrArr(e *jx.Encoder, domains []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, d := range domains {
			e.Str(d)
		}
	})
}

func (w *Writer) writeCSV(snap snapshot) error {
	f, err := os.Create(filepath.Join(w.dir, csvFile))
	if err != nil {
		return fmt.Errorf("could not create csv output: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"domain", "category"}); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}
	rows := []struct {
		domains  []string
		category domain.Category
	}{
		{snap.Disposable, domain.CategoryDisposable},
		{snap.Free, domain.CategoryFree},
		{snap.PaidPersonal, domain.CategoryPaidPersonal},
	}
	for _, r := range rows {
		for _, d := range r.domains {
			if err := cw.Write([]string{d, string(r.category)}); err != nil {
				return fmt.Errorf("could not write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("could not flush csv output: %w", err)
	}

	return nil
}

func (w *Writer) writeCategoryFiles(snap snapshot) error {
	files := map[string][]string{
		"disposable.txt":    snap.Disposable,
		"free.txt":          snap.Free,
		"paid_personal.txt": snap.PaidPersonal,
	}
	for name, domains := range files {
		body := ""
		for _, d := range domains {
			body += d + "\n"
		}
		if err := os.WriteFile(filepath.Join(w.dir, name), []byte(body), 0o600); err != nil {
			return fmt.Errorf("could not write %s: %w", name, err)
		}
	}

	return nil
}

// statsDocument is the published per-source statistics table.
type statsDocument struct {
	Generated         time.Time                     `json:"generated"`
	TotalFinalDomains int                           `json:"total_final_domains"`
	Sources           map[string]domain.SourceStats `json:"sources"`
}

func (w *Writer) writeStats(stats []domain.SourceStats, meta domain.Metadata) error {
	doc := statsDocument{
		Generated:         meta.GeneratedAt,
		TotalFinalDomains: meta.TotalDomains,
		Sources:           make(map[string]domain.SourceStats, len(stats)),
	}
	for _, s := range stats {
		doc.Sources[s.SourceID] = s
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal source stats: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, statsFile), b, 0o600); err != nil {
		return fmt.Errorf("could not write source stats: %w", err)
	}

	return nil
}

// CategoryDelta describes the change of one category between two snapshots.
type CategoryDelta struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Total   int `json:"total"`
}

// Delta summarizes how the dataset changed relative to the previous snapshot.
type Delta struct {
	Categories   map[string]CategoryDelta `json:"categories"`
	TotalAdded   int                      `json:"total_added"`
	TotalRemoved int                      `json:"total_removed"`
	TotalDomains int                      `json:"total_domains"`
}

func (w *Writer) writeDelta(ctx context.Context, snap snapshot, prev *snapshot) error {
	old := snapshot{}
	if prev != nil {
		old = *prev
	}

	delta := Delta{Categories: map[string]CategoryDelta{}}
	pairs := []struct {
		name     string
		now, old []string
	}{
		{string(domain.CategoryDisposable), snap.Disposable, old.Disposable},
		{string(domain.CategoryFree), snap.Free, old.Free},
		{string(domain.CategoryPaidPersonal), snap.PaidPersonal, old.PaidPersonal},
	}
	for _, p := range pairs {
		added, removed := diffSorted(p.now, p.old)
		delta.Categories[p.name] = CategoryDelta{Added: added, Removed: removed, Total: len(p.now)}
		delta.TotalAdded += added
		delta.TotalRemoved += removed
		delta.TotalDomains += len(p.now)
	}

	b, err := json.MarshalIndent(delta, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal delta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, deltaFile), b, 0o600); err != nil {
		return fmt.Errorf("could not write delta: %w", err)
	}

	logger.Info(ctx, "dataset delta",
		zap.Int("added", delta.TotalAdded),
		zap.Int("removed", delta.TotalRemoved))

	return nil
}

// diffSorted counts additions and removals between two sorted string slices.
func diffSorted(now, old []string) (added, removed int) {
	i, j := 0, 0
	for i < len(now) && j < len(old) {
		switch {
		case now[i] == old[j]:
			i++
			j++
		case now[i] < old[j]:
			added++
			i++
		default:
			removed++
			j++
		}
	}
	added += len(now) - i
	removed += len(old) - j

	return added, removed
}
