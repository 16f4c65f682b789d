// Package audio handles ingest of raw TIMIT recordings: WAV decoding of
// PCM-16 mono files into sample arrays, parsing of the corpus .phn/.wrd
// time-aligned annotation files, and assembly of utterances into a corpus
// with vocabularies and speaker metadata.
package audio
