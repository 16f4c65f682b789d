package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/speechlab/timit-frames/internal/dataset"
)

// Utterance is one raw TIMIT recording with its aligned annotations and the
// speaker it belongs to.
type Utterance struct {
	Speaker  string // speaker code, e.g. "fcjf0"
	Dialect  int    // dialect region, 0 when the layout carries none
	Samples  []float64
	Phonemes []Mark
	Words    []Mark
}

// ReadUtterance loads one recording triple: the WAV file plus its sibling
// .phn and .wrd annotation files. The speaker code comes from the
// recording's parent directory and the dialect region from a dr<N>
// grandparent, which is how the TIMIT distribution lays out its corpus.
func ReadUtterance(wavPath string) (Utterance, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return Utterance{}, fmt.Errorf("failed to read %s: %w", wavPath, err)
	}
	samples, _, err := DecodeWAV(data)
	if err != nil {
		return Utterance{}, fmt.Errorf("%s: %w", wavPath, err)
	}

	phonemes, err := readMarks(replaceExt(wavPath, ".phn"))
	if err != nil {
		return Utterance{}, err
	}
	words, err := readMarks(replaceExt(wavPath, ".wrd"))
	if err != nil {
		return Utterance{}, err
	}

	speakerDir := filepath.Dir(wavPath)
	return Utterance{
		Speaker:  strings.ToLower(filepath.Base(speakerDir)),
		Dialect:  dialectRegion(filepath.Base(filepath.Dir(speakerDir))),
		Samples:  ToFloat(samples),
		Phonemes: phonemes,
		Words:    words,
	}, nil
}

// BuildCorpus assembles utterances into a corpus: vocabularies collected over
// all annotations, marks encoded to unit indices, and the speaker metadata
// table derived from the corpus layout itself (sex from the speaker code's
// first letter, dialect from the region directory).
func BuildCorpus(utts []Utterance) (*dataset.Corpus, error) {
	if len(utts) == 0 {
		return nil, fmt.Errorf("no utterances to assemble")
	}

	phonemeLists := make([][]Mark, len(utts))
	wordLists := make([][]Mark, len(utts))
	for i, u := range utts {
		phonemeLists[i] = u.Phonemes
		wordLists[i] = u.Words
	}
	phonemeVocab := Vocabulary(phonemeLists...)
	wordVocab := Vocabulary(wordLists...)
	phonemeIndex := vocabIndex(phonemeVocab)
	wordIndex := vocabIndex(wordVocab)

	var speakerIDs []string
	seen := make(map[string]bool)
	for _, u := range utts {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			speakerIDs = append(speakerIDs, u.Speaker)
		}
	}
	sort.Strings(speakerIDs)
	speakerIndex := vocabIndex(speakerIDs)

	speakerInfo := make([][]float64, len(speakerIDs))
	for _, u := range utts {
		id := speakerIndex[u.Speaker]
		if speakerInfo[id] != nil {
			continue
		}
		sex, err := speakerSex(u.Speaker)
		if err != nil {
			return nil, err
		}
		speakerInfo[id] = []float64{sex, float64(u.Dialect)}
	}

	seqs := make([]dataset.SequenceSource, len(utts))
	for i, u := range utts {
		phonemes, err := encodeMarks(u.Phonemes, phonemeIndex, len(u.Samples))
		if err != nil {
			return nil, fmt.Errorf("utterance %d phonemes: %w", i, err)
		}
		words, err := encodeMarks(u.Words, wordIndex, len(u.Samples))
		if err != nil {
			return nil, fmt.Errorf("utterance %d words: %w", i, err)
		}
		seqs[i] = dataset.SequenceSource{
			Samples:  u.Samples,
			Phonemes: phonemes,
			Words:    words,
			Speaker:  speakerIndex[u.Speaker],
		}
	}

	return &dataset.Corpus{
		Sequences:           seqs,
		PhonemeVocab:        phonemeVocab,
		WordVocab:           wordVocab,
		SpeakerIDs:          speakerIDs,
		SpeakerFeatureNames: []string{"sex", "dialect"},
		SpeakerInfo:         speakerInfo,
	}, nil
}

// encodeMarks turns parsed marks into vocabulary-indexed annotations,
// checking them against the recording length.
func encodeMarks(marks []Mark, index map[string]int, length int) ([]dataset.Annotation, error) {
	annots := make([]dataset.Annotation, 0, len(marks))
	for _, m := range marks {
		if m.End > length {
			return nil, fmt.Errorf("mark [%d, %d) %q outside recording of %d samples",
				m.Start, m.End, m.Label, length)
		}
		annots = append(annots, dataset.Annotation{Start: m.Start, End: m.End, Unit: index[m.Label]})
	}
	return annots, nil
}

func readMarks(path string) ([]Mark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	marks, err := ParseMarks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return marks, nil
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// dialectRegion parses a dr<N> directory name; any other layout maps to 0.
func dialectRegion(name string) int {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "dr") {
		if n, err := strconv.Atoi(name[2:]); err == nil {
			return n
		}
	}
	return 0
}

// speakerSex reads the sex encoded in a TIMIT speaker code: 0 for female
// codes, 1 for male codes.
func speakerSex(code string) (float64, error) {
	switch {
	case strings.HasPrefix(code, "f"):
		return 0, nil
	case strings.HasPrefix(code, "m"):
		return 1, nil
	default:
		return 0, fmt.Errorf("speaker code %q does not start with 'f' or 'm'", code)
	}
}

func vocabIndex(entries []string) map[string]int {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e] = i
	}
	return index
}
