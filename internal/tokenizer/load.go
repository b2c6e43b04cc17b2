package tokenizer

// Load opens the model at path with the backend matching the model_type stored
// in its trainer spec. BPE models go to the BPE backend; everything else is
// treated as UNIGRAM.
func Load(path string) (Tokenizer, error) {
	vocab, err := LoadVocab(path)
	if err != nil {
		return nil, err
	}

	if vocab.IsBPE() {
		bpe, err := newBPETokenizer(vocab)
		if err != nil {
			return nil, err
		}
		return bpe, nil
	}

	uni, err := newSentencePieceTokenizer(path, vocab)
	if err != nil {
		return nil, err
	}

	return uni, nil
}
