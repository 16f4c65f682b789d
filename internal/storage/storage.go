package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/speechlab/timit-frames/internal/dataset"
)

// File names within a partition directory. Partition-dependent files are
// prefixed with the partition name ("train_x_raw.npy" and so on).
const (
	rawSuffix      = "_x_raw.npy"
	seqRangeSuffix = "_seq_ranges.npy"
	phnSuffix      = "_redux_phn.npy"
	seqToPhnSuffix = "_seq_to_phn.npy"
	wrdSuffix      = "_wrd.npy"
	seqToWrdSuffix = "_seq_to_wrd.npy"
	spkrSuffix     = "_spkr.npy"

	speakerInfoFile  = "spkrinfo.npy"
	phonemeVocabFile = "reduced_phonemes.txt"
	wordVocabFile    = "words.txt"
	speakerFeatsFile = "spkr_feature_names.txt"
	speakerIDsFile   = "speakers_ids.txt"
)

// Store reads prepared TIMIT partitions from a base directory.
type Store struct {
	base string
}

// NewStore opens a store over the given data directory.
func NewStore(basePath string) (*Store, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", basePath)
	}
	return &Store{base: basePath}, nil
}

// Load reads one partition and assembles it into a corpus. It cross-checks
// every range table against the arrays it indexes; any inconsistency fails
// the whole load.
func (s *Store) Load(which string) (*dataset.Corpus, error) {
	raw, err := readFloats(s.path(which + rawSuffix))
	if err != nil {
		return nil, err
	}
	seqRanges, err := readPairs(s.path(which + seqRangeSuffix))
	if err != nil {
		return nil, err
	}
	phonemeRows, err := readTriples(s.path(which + phnSuffix))
	if err != nil {
		return nil, err
	}
	seqToPhn, err := readPairs(s.path(which + seqToPhnSuffix))
	if err != nil {
		return nil, err
	}
	wordRows, err := readTriples(s.path(which + wrdSuffix))
	if err != nil {
		return nil, err
	}
	seqToWrd, err := readPairs(s.path(which + seqToWrdSuffix))
	if err != nil {
		return nil, err
	}
	speakers, err := readInts(s.path(which + spkrSuffix))
	if err != nil {
		return nil, err
	}

	phonemeVocab, err := readLines(s.path(phonemeVocabFile))
	if err != nil {
		return nil, err
	}
	wordVocab, err := readLines(s.path(wordVocabFile))
	if err != nil {
		return nil, err
	}
	featureNames, err := readLines(s.path(speakerFeatsFile))
	if err != nil {
		return nil, err
	}
	speakerIDs, err := readLines(s.path(speakerIDsFile))
	if err != nil {
		return nil, err
	}
	speakerInfo, err := readMatrix(s.path(speakerInfoFile), len(featureNames))
	if err != nil {
		return nil, err
	}

	n := len(seqRanges)
	if len(seqToPhn) != n || len(seqToWrd) != n || len(speakers) != n {
		return nil, fmt.Errorf("%s partition: inconsistent sequence counts: %d ranges, %d phoneme ranges, %d word ranges, %d speakers",
			which, n, len(seqToPhn), len(seqToWrd), len(speakers))
	}

	seqs := make([]dataset.SequenceSource, n)
	for i := 0; i < n; i++ {
		start, end := seqRanges[i][0], seqRanges[i][1]
		if start < 0 || end > len(raw) || start > end {
			return nil, fmt.Errorf("%s partition: sequence %d: sample range [%d, %d) outside raw array of length %d",
				which, i, start, end, len(raw))
		}

		phonemes, err := sliceAnnotations(phonemeRows, seqToPhn[i], len(phonemeVocab))
		if err != nil {
			return nil, fmt.Errorf("%s partition: sequence %d phonemes: %w", which, i, err)
		}
		words, err := sliceAnnotations(wordRows, seqToWrd[i], len(wordVocab))
		if err != nil {
			return nil, fmt.Errorf("%s partition: sequence %d words: %w", which, i, err)
		}

		speaker := speakers[i]
		if speaker < 0 || speaker >= len(speakerInfo) {
			return nil, fmt.Errorf("%s partition: sequence %d: speaker %d outside metadata table of %d speakers",
				which, i, speaker, len(speakerInfo))
		}

		seqs[i] = dataset.SequenceSource{
			Samples:  raw[start:end],
			Phonemes: phonemes,
			Words:    words,
			Speaker:  speaker,
		}
	}

	return &dataset.Corpus{
		Sequences:           seqs,
		PhonemeVocab:        phonemeVocab,
		WordVocab:           wordVocab,
		SpeakerIDs:          speakerIDs,
		SpeakerFeatureNames: featureNames,
		SpeakerInfo:         speakerInfo,
	}, nil
}

// Save writes a corpus back out as one partition. Used by tests and by the
// timitprep ingest mode.
func (s *Store) Save(which string, c *dataset.Corpus) error {
	var (
		raw       []float64
		seqRanges [][2]int
		phnRows   [][3]int
		seqToPhn  [][2]int
		wrdRows   [][3]int
		seqToWrd  [][2]int
		speakers  []int
	)
	for _, seq := range c.Sequences {
		seqRanges = append(seqRanges, [2]int{len(raw), len(raw) + len(seq.Samples)})
		raw = append(raw, seq.Samples...)

		seqToPhn = append(seqToPhn, [2]int{len(phnRows), len(phnRows) + len(seq.Phonemes)})
		for _, a := range seq.Phonemes {
			phnRows = append(phnRows, [3]int{a.Start, a.End, a.Unit})
		}

		seqToWrd = append(seqToWrd, [2]int{len(wrdRows), len(wrdRows) + len(seq.Words)})
		for _, a := range seq.Words {
			wrdRows = append(wrdRows, [3]int{a.Start, a.End, a.Unit})
		}

		speakers = append(speakers, seq.Speaker)
	}

	var speakerInfo []float64
	for _, row := range c.SpeakerInfo {
		speakerInfo = append(speakerInfo, row...)
	}

	writes := []struct {
		name string
		fn   func(string) error
	}{
		{which + rawSuffix, func(p string) error { return writeArray(p, raw) }},
		{which + seqRangeSuffix, func(p string) error { return writeArray(p, flattenPairs(seqRanges)) }},
		{which + phnSuffix, func(p string) error { return writeArray(p, flattenTriples(phnRows)) }},
		{which + seqToPhnSuffix, func(p string) error { return writeArray(p, flattenPairs(seqToPhn)) }},
		{which + wrdSuffix, func(p string) error { return writeArray(p, flattenTriples(wrdRows)) }},
		{which + seqToWrdSuffix, func(p string) error { return writeArray(p, flattenPairs(seqToWrd)) }},
		{which + spkrSuffix, func(p string) error { return writeArray(p, toInt64(speakers)) }},
		{speakerInfoFile, func(p string) error { return writeArray(p, speakerInfo) }},
		{phonemeVocabFile, func(p string) error { return writeLines(p, c.PhonemeVocab) }},
		{wordVocabFile, func(p string) error { return writeLines(p, c.WordVocab) }},
		{speakerFeatsFile, func(p string) error { return writeLines(p, c.SpeakerFeatureNames) }},
		{speakerIDsFile, func(p string) error { return writeLines(p, c.SpeakerIDs) }},
	}
	for _, w := range writes {
		if err := w.fn(s.path(w.name)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.base, name)
}

// sliceAnnotations extracts one sequence's rows from a flat interval table.
func sliceAnnotations(rows [][3]int, r [2]int, vocabSize int) ([]dataset.Annotation, error) {
	start, end := r[0], r[1]
	if start < 0 || end > len(rows) || start > end {
		return nil, fmt.Errorf("row range [%d, %d) outside table of %d rows", start, end, len(rows))
	}

	annots := make([]dataset.Annotation, 0, end-start)
	for _, row := range rows[start:end] {
		if row[2] < 0 || row[2] >= vocabSize {
			return nil, fmt.Errorf("unit index %d outside vocabulary of size %d", row[2], vocabSize)
		}
		annots = append(annots, dataset.Annotation{Start: row[0], End: row[1], Unit: row[2]})
	}
	return annots, nil
}

func readFloats(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var data []float64
	if err := npyio.Read(f, &data); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func readInts(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var data []int64
	if err := npyio.Read(f, &data); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := make([]int, len(data))
	for i, v := range data {
		out[i] = int(v)
	}
	return out, nil
}

func readPairs(path string) ([][2]int, error) {
	flat, err := readInts(path)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%s: expected pairs, got %d values", path, len(flat))
	}

	pairs := make([][2]int, len(flat)/2)
	for i := range pairs {
		pairs[i] = [2]int{flat[2*i], flat[2*i+1]}
	}
	return pairs, nil
}

func readTriples(path string) ([][3]int, error) {
	flat, err := readInts(path)
	if err != nil {
		return nil, err
	}
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("%s: expected triples, got %d values", path, len(flat))
	}

	triples := make([][3]int, len(flat)/3)
	for i := range triples {
		triples[i] = [3]int{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return triples, nil
}

func readMatrix(path string, cols int) ([][]float64, error) {
	flat, err := readFloats(path)
	if err != nil {
		return nil, err
	}
	if cols == 0 {
		if len(flat) != 0 {
			return nil, fmt.Errorf("%s: %d values but no feature names", path, len(flat))
		}
		return nil, nil
	}
	if len(flat)%cols != 0 {
		return nil, fmt.Errorf("%s: %d values not divisible by %d feature columns", path, len(flat), cols)
	}

	rows := make([][]float64, len(flat)/cols)
	for i := range rows {
		rows[i] = flat[i*cols : (i+1)*cols]
	}
	return rows, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	// A blank line in the middle would silently shift every index after it.
	for i, line := range lines {
		if line == "" {
			return nil, fmt.Errorf("%s: blank line %d", path, i+1)
		}
	}
	return lines, nil
}

func writeArray(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := npyio.Write(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func flattenPairs(pairs [][2]int) []int64 {
	flat := make([]int64, 0, len(pairs)*2)
	for _, p := range pairs {
		flat = append(flat, int64(p[0]), int64(p[1]))
	}
	return flat
}

func flattenTriples(triples [][3]int) []int64 {
	flat := make([]int64, 0, len(triples)*3)
	for _, t := range triples {
		flat = append(flat, int64(t[0]), int64(t[1]), int64(t[2]))
	}
	return flat
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
