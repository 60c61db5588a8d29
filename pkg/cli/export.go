package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
	memstore "github.com/recallhq/recall/pkg/storage/memory"
)

// Export is the on-disk JSON export format.
type Export struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Memories   []*memory.Record `json:"memories"`
}

// ParseExport reads records from a JSON export. It accepts a bare array or an
// object holding the array under memories, records, data or results. A
// summary stands in for missing content. Items that are not objects or carry
// no body are rejected, since the export is rewritten from what was parsed.
// Records without a container tag are assigned tag; missing IDs and creation
// times are filled in.
func ParseExport(data []byte, tag string, now time.Time) ([]*memory.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("export is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	arr := root
	if !root.IsArray() {
		arr = gjson.Result{}
		for _, key := range []string{"memories", "records", "data", "results"} {
			if v := root.Get(key); v.IsArray() {
				arr = v
				break
			}
		}
		if !arr.IsArray() {
			return nil, fmt.Errorf("export holds no memory array")
		}
	}

	var out []*memory.Record
	var decodeErr error
	arr.ForEach(func(key, item gjson.Result) bool {
		if !item.IsObject() {
			decodeErr = fmt.Errorf("memory %d: expected an object, got %s", key.Int(), item.Type)
			return false
		}
		var r memory.Record
		if err := json.Unmarshal([]byte(item.Raw), &r); err != nil {
			decodeErr = fmt.Errorf("memory %d: %w", key.Int(), err)
			return false
		}
		if r.Content == "" {
			r.Content = item.Get("summary").String()
		}
		if r.Content == "" {
			decodeErr = fmt.Errorf("memory %d: no content or summary", key.Int())
			return false
		}
		if r.ContainerTag == "" {
			r.ContainerTag = tag
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		out = append(out, &r)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

// fileStore is an in-memory store seeded from an export. It remembers the
// container tags it was loaded with so it can be written back.
type fileStore struct {
	*memstore.Store
	tags map[string]struct{}
}

func loadFileStore(path, tag string) (*fileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	records, err := ParseExport(data, tag, time.Now())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	fs := &fileStore{Store: memstore.New(), tags: map[string]struct{}{tag: {}}}
	if err := fs.Seed(records...); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	for _, r := range records {
		fs.tags[r.ContainerTag] = struct{}{}
	}
	return fs, nil
}

func (fs *fileStore) all(ctx context.Context) ([]*memory.Record, error) {
	tags := make([]string, 0, len(fs.tags))
	for t := range fs.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	var out []*memory.Record
	for _, t := range tags {
		records, err := fs.List(ctx, t, storage.Filter{})
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// saveFileStore rewrites the export via a temp file and rename.
func saveFileStore(ctx context.Context, path string, s storage.Store) error {
	fs, ok := s.(*fileStore)
	if !ok {
		return nil
	}
	records, err := fs.all(ctx)
	if err != nil {
		return err
	}
	return writeExportFile(path, Export{ExportedAt: time.Now().UTC(), Memories: records})
}

func writeExportFile(path string, exp Export) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".recall-export-*")
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func newExportCommand(e *env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tag's memories as a JSON export",
		Long: `Write every memory of the selected tag in the format accepted by --file.

Examples:
  recallctl --tag alice export > alice.json
  recallctl --tag alice export --out alice.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := e.store.List(cmd.Context(), e.opts.tag, storage.Filter{})
			if err != nil {
				return fmt.Errorf("list memories: %w", err)
			}
			if records == nil {
				records = []*memory.Record{}
			}
			exp := Export{ExportedAt: time.Now().UTC(), Memories: records}
			if out != "" {
				if err := writeExportFile(out, exp); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d memories to %s\n", len(records), out)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), exp)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}
