package content

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportOptions controls how a vocabulary sheet is read.
type ImportOptions struct {
	Sheet      string // xlsx sheet; empty means the first sheet
	SkipHeader bool
	PackID     int  // 0 picks max existing pack id + 1
	LessonID   *int // nil leaves the pack off the lesson track
	Level      int  // default word level when the column is blank
}

// ImportResult summarizes an import.
type ImportResult struct {
	Pack    VocabPack
	Added   int
	Skipped int
	Errors  []string
}

// ImportVocab reads rows of (surface, reading, meanings, level, tags) from
// an .xlsx or .csv file and appends them to b as a new VocabPack. Meanings
// and tags are ';'-separated. Rows without a surface form are skipped.
func ImportVocab(b *Bundle, path string, opts ImportOptions) (*ImportResult, error) {
	if b == nil {
		return nil, errors.New("import vocab: nil bundle")
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xlsm":
		rows, err = readSheetRows(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("import vocab: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if opts.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	if opts.Level <= 0 {
		opts.Level = 1
	}

	nextVocab := 1
	for _, v := range b.Vocab {
		if v.ID >= nextVocab {
			nextVocab = v.ID + 1
		}
	}
	packID := opts.PackID
	if packID == 0 {
		for _, p := range b.Packs {
			if p.ID >= packID {
				packID = p.ID + 1
			}
		}
		if packID == 0 {
			packID = 1
		}
	}

	res := &ImportResult{Pack: VocabPack{ID: packID, LessonID: opts.LessonID, Level: opts.Level}}
	for i, row := range rows {
		v, ok, err := parseVocabRow(row, opts.Level)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			res.Skipped++
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		v.ID = nextVocab
		nextVocab++
		b.Vocab = append(b.Vocab, v)
		res.Pack.VocabIDs = append(res.Pack.VocabIDs, v.ID)
		res.Added++
	}
	b.Packs = append(b.Packs, res.Pack)
	return res, nil
}

func parseVocabRow(row []string, defaultLevel int) (Vocab, bool, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	surface := col(0)
	if surface == "" {
		return Vocab{}, false, nil
	}
	v := Vocab{
		Surface:  surface,
		Reading:  col(1),
		Meanings: splitList(col(2)),
		Level:    defaultLevel,
		Tags:     splitList(col(4)),
	}
	if lv := col(3); lv != "" {
		n, err := strconv.Atoi(lv)
		if err != nil {
			return Vocab{}, false, fmt.Errorf("invalid level %q", lv)
		}
		v.Level = n
	}
	return v, true, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readSheetRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
