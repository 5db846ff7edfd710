package nn

import "fmt"

// ---- Decoder step backward ----

// Backward for the attention variant. See TrainableDecoder for the
// contract; dWindow is flat [maxLen*hidden] and receives this step's
// contribution for every slot, padding included (the encoder mapping
// later discards grads on slots that hold no real output).
func (d *AttnDecoder) Backward(step *DecodeStep, dLogProbs, dState, dWindow []float32) ([]float32, error) {
	cache, ok := step.cache.(*attnCache)
	if !ok {
		return nil, fmt.Errorf("attention decoder: step was not produced by this decoder")
	}
	H := d.hidden
	E := d.embed

	// Output projection + log-softmax.
	dLogits := logSoftmaxBackward(step.LogProbs, dLogProbs)
	dhNew := d.Out.backward(cache.hNew, dLogits)
	if dState != nil {
		for i := 0; i < H; i++ {
			dhNew[i] += dState[i]
		}
	}

	// GRU step.
	dGruIn, dhPrev := d.Cell.Backward(cache.gru, dhNew)

	// Combine projection (relu'd into the GRU).
	dCombPre := reluBackward(cache.combPre, dGruIn)
	dCombIn := d.Combine.backward(cache.combIn, dCombPre)
	dEmb := make([]float32, E)
	copy(dEmb, dCombIn[:E])
	dCtx := dCombIn[E:]

	// context = sum_i weights[i] * slot_i
	dWeights := make([]float32, d.maxLen)
	for i := 0; i < d.maxLen; i++ {
		slot := cache.window.Slot(i)
		var dot float32
		for j := 0; j < H; j++ {
			dot += dCtx[j] * slot[j]
		}
		dWeights[i] = dot
		if dWindow != nil {
			w := cache.weights[i]
			for j := 0; j < H; j++ {
				dWindow[i*H+j] += w * dCtx[j]
			}
		}
	}

	// Softmax over attention scores.
	var wSum float32
	for i := 0; i < d.maxLen; i++ {
		wSum += cache.weights[i] * dWeights[i]
	}
	dScores := make([]float32, d.maxLen)
	for i := 0; i < d.maxLen; i++ {
		dScores[i] = cache.weights[i] * (dWeights[i] - wSum)
	}

	// Attention projection over [emb ; state].
	dAttnIn := d.Attn.backward(cache.attnIn, dScores)
	for i := 0; i < E; i++ {
		dEmb[i] += dAttnIn[i]
	}
	dPrevState := make([]float32, H)
	for i := 0; i < H; i++ {
		dPrevState[i] = dAttnIn[E+i] + dhPrev[i]
	}

	d.Embed.accumulateRowGrad(cache.prev, dEmb)
	return dPrevState, nil
}

// Backward for the plain variant. The window gradient is untouched; a
// decoder without attention never reads encoder outputs.
func (d *PlainDecoder) Backward(step *DecodeStep, dLogProbs, dState, _ []float32) ([]float32, error) {
	cache, ok := step.cache.(*plainCache)
	if !ok {
		return nil, fmt.Errorf("plain decoder: step was not produced by this decoder")
	}

	dLogits := logSoftmaxBackward(step.LogProbs, dLogProbs)
	dhNew := d.Out.backward(cache.hNew, dLogits)
	if dState != nil {
		for i := range dhNew {
			dhNew[i] += dState[i]
		}
	}

	dGruIn, dhPrev := d.Cell.Backward(cache.gru, dhNew)
	dEmb := reluBackward(cache.emb, dGruIn)
	d.Embed.accumulateRowGrad(cache.prev, dEmb)
	return dhPrev, nil
}
