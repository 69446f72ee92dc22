// Package model trains and serves the binary win classifier: a logistic
// regression fitted by gradient descent on the differenced feature matrix.
// The split is strictly time-ordered (train, then validation for early
// stopping, then a held-out test slice) because shuffling would reintroduce
// exactly the leakage the feature pipeline exists to prevent.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/features"
	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// ErrInsufficientData reports a training run whose time-ordered splits are
// too small to fit or evaluate a model. Surfaced to the operator, never
// masked with a default model.
var ErrInsufficientData = errors.New("not enough feature rows to train")

// Options are the training hyperparameters.
type Options struct {
	LearningRate float64
	Epochs       int
	Patience     int // epochs without validation improvement before stopping
	L2Penalty    float64
	TrainFrac    float64
	ValFrac      float64
	MinSplitRows int
}

func (o Options) withDefaults() Options {
	if o.LearningRate == 0 {
		o.LearningRate = 0.1
	}
	if o.Epochs == 0 {
		o.Epochs = 500
	}
	if o.Patience == 0 {
		o.Patience = 25
	}
	if o.TrainFrac == 0 {
		o.TrainFrac = 0.70
	}
	if o.ValFrac == 0 {
		o.ValFrac = 0.15
	}
	if o.MinSplitRows == 0 {
		o.MinSplitRows = 50
	}
	return o
}

// Artifact is the serialized model: weights plus the feature-column contract
// and the standardization constants baked in at training time. Inference must
// use these verbatim; recomputing any of them against different data breaks
// the training/serving contract.
type Artifact struct {
	FeatureCols []string  `json:"feature_cols"`
	Bias        float64   `json:"bias"`
	Weights     []float64 `json:"weights"`
	Means       []float64 `json:"means"`
	Stds        []float64 `json:"stds"`
	TrainedAt   time.Time `json:"trained_at"`
	TrainRows   int       `json:"train_rows"`
}

// Predict returns the probability of the positive class (subject wins) for a
// raw feature vector in artifact column order.
func (a *Artifact) Predict(vector []float64) float64 {
	z := a.Bias
	for i, v := range vector {
		z += a.Weights[i] * (v - a.Means[i]) / a.Stds[i]
	}
	return sigmoid(z)
}

// Save writes the artifact as indented JSON.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model artifact: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads an artifact and checks its column contract against the current
// canonical ordering.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	cols := features.Cols()
	if len(a.FeatureCols) != len(cols) {
		return nil, fmt.Errorf("model artifact %s has %d feature columns, expected %d", path, len(a.FeatureCols), len(cols))
	}
	for i, c := range cols {
		if a.FeatureCols[i] != c {
			return nil, fmt.Errorf("model artifact %s column %d is %q, expected %q", path, i, a.FeatureCols[i], c)
		}
	}
	if len(a.Weights) != len(cols) || len(a.Means) != len(cols) || len(a.Stds) != len(cols) {
		return nil, fmt.Errorf("model artifact %s has inconsistent weight shapes", path)
	}
	return &a, nil
}

// Metrics summarizes held-out test performance.
type Metrics struct {
	Accuracy float64 `json:"accuracy"`
	LogLoss  float64 `json:"log_loss"`
	ROCAUC   float64 `json:"roc_auc"`
	TestRows int     `json:"test_rows"`
}

// Train fits the classifier on a time-ordered split of the feature rows and
// evaluates it on the most recent slice. Rows are sorted by date internally;
// they are never shuffled or sampled.
func Train(rows []models.FeatureRow, opts Options, logger *zap.SugaredLogger) (*Artifact, *Metrics, error) {
	opts = opts.withDefaults()

	sorted := make([]models.FeatureRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	x := make([][]float64, len(sorted))
	y := make([]float64, len(sorted))
	for i := range sorted {
		x[i] = features.Vector(&sorted[i])
		y[i] = sorted[i].Label
	}

	trainEnd := int(float64(len(x)) * opts.TrainFrac)
	valEnd := int(float64(len(x)) * (opts.TrainFrac + opts.ValFrac))
	if trainEnd < opts.MinSplitRows || valEnd-trainEnd < opts.MinSplitRows || len(x)-valEnd < opts.MinSplitRows {
		return nil, nil, fmt.Errorf("%w: train %d / val %d / test %d, need at least %d each",
			ErrInsufficientData, trainEnd, valEnd-trainEnd, len(x)-valEnd, opts.MinSplitRows)
	}

	nFeat := len(x[0])
	means, stds := standardization(x[:trainEnd], nFeat)
	std := func(row []float64) []float64 {
		out := make([]float64, nFeat)
		for i, v := range row {
			out[i] = (v - means[i]) / stds[i]
		}
		return out
	}

	xTrain := make([][]float64, trainEnd)
	for i := range xTrain {
		xTrain[i] = std(x[i])
	}
	xVal := make([][]float64, valEnd-trainEnd)
	for i := range xVal {
		xVal[i] = std(x[trainEnd+i])
	}
	yTrain, yVal := y[:trainEnd], y[trainEnd:valEnd]

	// Full-batch gradient descent on log-loss with L2, early-stopped on
	// validation loss.
	weights := make([]float64, nFeat)
	bias := 0.0
	bestWeights := make([]float64, nFeat)
	bestBias := 0.0
	bestValLoss := math.Inf(1)
	sinceBest := 0

	grad := make([]float64, nFeat)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		gradBias := 0.0
		for i, xi := range xTrain {
			p := sigmoid(bias + dot(weights, xi))
			e := p - yTrain[i]
			gradBias += e
			for k, v := range xi {
				grad[k] += e * v
			}
		}
		n := float64(len(xTrain))
		bias -= opts.LearningRate * gradBias / n
		for k := range weights {
			weights[k] -= opts.LearningRate * (grad[k]/n + opts.L2Penalty*weights[k])
		}

		valLoss := 0.0
		for i, xi := range xVal {
			valLoss += logLossTerm(yVal[i], sigmoid(bias+dot(weights, xi)))
		}
		valLoss /= float64(len(xVal))

		if valLoss < bestValLoss-1e-9 {
			bestValLoss = valLoss
			bestBias = bias
			copy(bestWeights, weights)
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= opts.Patience {
				logger.Infow("Early stopping", "epoch", epoch, "valLogLoss", bestValLoss)
				break
			}
		}
	}

	artifact := &Artifact{
		FeatureCols: features.Cols(),
		Bias:        bestBias,
		Weights:     bestWeights,
		Means:       means,
		Stds:        stds,
		TrainedAt:   time.Now().UTC(),
		TrainRows:   trainEnd,
	}

	metrics := evaluate(artifact, x[valEnd:], y[valEnd:])
	logger.Infow("Model trained",
		"trainRows", trainEnd,
		"valRows", valEnd-trainEnd,
		"testRows", metrics.TestRows,
		"testAccuracy", metrics.Accuracy,
		"testLogLoss", metrics.LogLoss,
		"testROCAUC", metrics.ROCAUC,
	)
	return artifact, metrics, nil
}

func standardization(x [][]float64, nFeat int) (means, stds []float64) {
	means = make([]float64, nFeat)
	stds = make([]float64, nFeat)
	n := float64(len(x))
	for _, row := range x {
		for i, v := range row {
			means[i] += v
		}
	}
	for i := range means {
		means[i] /= n
	}
	for _, row := range x {
		for i, v := range row {
			d := v - means[i]
			stds[i] += d * d
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
		if stds[i] == 0 {
			stds[i] = 1 // constant column, leave it centered
		}
	}
	return means, stds
}

func evaluate(a *Artifact, x [][]float64, y []float64) *Metrics {
	m := &Metrics{TestRows: len(x)}
	probs := make([]float64, len(x))
	correct := 0
	loss := 0.0
	for i, xi := range x {
		p := a.Predict(xi)
		probs[i] = p
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
		loss += logLossTerm(y[i], p)
	}
	m.Accuracy = float64(correct) / float64(len(x))
	m.LogLoss = loss / float64(len(x))
	m.ROCAUC = rocAUC(probs, y)
	return m
}

// rocAUC computes the area under the ROC curve via the rank-sum formulation,
// with the standard half-credit for tied scores.
func rocAUC(probs, y []float64) float64 {
	var pos, neg float64
	var sum float64
	for i := range probs {
		for j := range probs {
			if y[i] == 1 && y[j] == 0 {
				switch {
				case probs[i] > probs[j]:
					sum += 1
				case probs[i] == probs[j]:
					sum += 0.5
				}
			}
		}
	}
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return sum / (pos * neg)
}

const epsilon = 1e-15

func logLossTerm(y, p float64) float64 {
	p = math.Min(math.Max(p, epsilon), 1-epsilon)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

func sigmoid(z float64) float64 {
	if z > 20 {
		return 1.0
	}
	if z < -20 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
