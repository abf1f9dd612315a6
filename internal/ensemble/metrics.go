// Package ensemble combines per-member predictive distributions of a deep
// ensemble into calibrated likelihood and accuracy metrics, and drives the
// evaluation of checkpointed ensemble members over a dataset.
package ensemble

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// NegativeLogLikelihood computes the per-example negative log-likelihood of
// the ensemble's mixture predictive distribution.
//
// For each datapoint (x, y):
//
//	-log p(y|x) = -logsumexp_m(log p(y|x, theta_m)) + log M
//
// which equals the negative log of the arithmetic mean of the per-member
// predictive probabilities. labels has shape S, logits has shape
// [M, S..., C]; the result has shape S. Callers average over the dataset
// for a scalar metric.
func NegativeLogLikelihood[B tensor.Backend](
	labels *tensor.Tensor[int32, B],
	logits *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], error) {
	m, n, c, err := validateShapes("ensemble nll", labels, logits)
	if err != nil {
		return nil, err
	}

	nlls, err := memberNLLs("ensemble nll", labels, logits, m, n, c)
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros[float32, B](labels.Shape(), logits.Backend())
	outData := out.Data()
	logM := math.Log(float64(m))
	terms := make([]float64, m)
	for i := 0; i < n; i++ {
		for mm := 0; mm < m; mm++ {
			terms[mm] = -nlls[mm*n+i]
		}
		outData[i] = float32(-floats.LogSumExp(terms) + logM)
	}
	return out, nil
}

// GibbsCrossEntropy computes the per-example average of the members'
// negative log-likelihoods:
//
//	GCE = (1/M) sum_m -log p(y|x, theta_m)
//
// It estimates the expected cross-entropy of a single model drawn uniformly
// from the ensemble and upper-bounds NegativeLogLikelihood by Jensen's
// inequality. Shapes as for NegativeLogLikelihood.
func GibbsCrossEntropy[B tensor.Backend](
	labels *tensor.Tensor[int32, B],
	logits *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], error) {
	m, n, c, err := validateShapes("gibbs cross entropy", labels, logits)
	if err != nil {
		return nil, err
	}

	nlls, err := memberNLLs("gibbs cross entropy", labels, logits, m, n, c)
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros[float32, B](labels.Shape(), logits.Backend())
	outData := out.Data()
	for i := 0; i < n; i++ {
		sum := 0.0
		for mm := 0; mm < m; mm++ {
			sum += nlls[mm*n+i]
		}
		outData[i] = float32(sum / float64(m))
	}
	return out, nil
}

// Accuracy averages the per-member softmax probabilities over the ensemble
// axis, takes the argmax over classes, and returns the fraction of examples
// whose prediction matches the label.
func Accuracy[B tensor.Backend](
	labels *tensor.Tensor[int32, B],
	logits *tensor.Tensor[float32, B],
) (float64, error) {
	_, n, _, err := validateShapes("ensemble accuracy", labels, logits)
	if err != nil {
		return 0, err
	}

	probs := logits.Softmax(-1).MeanDim(0, false)
	preds := probs.Argmax(-1).Data()
	labelData := labels.Data()

	correct := 0
	for i := 0; i < n; i++ {
		if preds[i] == labelData[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// validateShapes checks the ensemble/label shape invariant and returns
// (ensemble size, example count, class count). logits must have shape
// [M, S..., C] with labels of shape S; violations fail before any
// computation happens.
func validateShapes[B tensor.Backend](
	op string,
	labels *tensor.Tensor[int32, B],
	logits *tensor.Tensor[float32, B],
) (m, n, c int, err error) {
	logitShape := logits.Shape()
	labelShape := labels.Shape()

	if len(logitShape) < 2 {
		return 0, 0, 0, &InvalidShapeError{
			Op: op, Labels: labelShape, Logits: logitShape,
			Reason: "logits must have at least an ensemble and a class axis",
		}
	}

	m = logitShape[0]
	c = logitShape[len(logitShape)-1]
	if m < 1 {
		return 0, 0, 0, &InvalidShapeError{
			Op: op, Labels: labelShape, Logits: logitShape,
			Reason: "ensemble size must be at least 1",
		}
	}

	inner := logitShape[1 : len(logitShape)-1]
	if !labelShape.Equal(inner) {
		return 0, 0, 0, &InvalidShapeError{
			Op: op, Labels: labelShape, Logits: logitShape,
			Reason: "label shape must match logits' dataset dimensions",
		}
	}

	return m, labelShape.NumElements(), c, nil
}

// memberNLLs computes -log softmax(logits_m)[label] for every member and
// example, in float64. The result is indexed [member*n + example].
//
// Softmax is folded into the log domain: subtracting the max logit before
// exponentiating prevents overflow for large logits and underflow when all
// logits are very negative.
func memberNLLs[B tensor.Backend](
	op string,
	labels *tensor.Tensor[int32, B],
	logits *tensor.Tensor[float32, B],
	m, n, c int,
) ([]float64, error) {
	labelData := labels.Data()
	logitData := logits.Data()

	nlls := make([]float64, m*n)
	for mm := 0; mm < m; mm++ {
		for i := 0; i < n; i++ {
			label := int(labelData[i])
			if label < 0 || label >= c {
				return nil, &InvalidShapeError{
					Op: op, Labels: labels.Shape(), Logits: logits.Shape(),
					Reason: "label index out of range for class axis",
				}
			}

			row := logitData[(mm*n+i)*c : (mm*n+i+1)*c]

			maxV := float64(row[0])
			for _, v := range row[1:] {
				if fv := float64(v); fv > maxV {
					maxV = fv
				}
			}
			sumExp := 0.0
			for _, v := range row {
				sumExp += math.Exp(float64(v) - maxV)
			}

			// nll = logsumexp(row) - row[label]
			nlls[mm*n+i] = maxV + math.Log(sumExp) - float64(row[label])
		}
	}
	return nlls, nil
}
