package featureselect

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ckd/ckd/internal/domain/prediction"
)

type TrainConfig struct {
	Iterations   int
	LearningRate float64
	L2           float64
	// Every TestEvery-th row is held out for evaluation.
	TestEvery int
}

var DefaultTrainConfig = TrainConfig{
	Iterations:   1000,
	LearningRate: 0.1,
	L2:           0.001,
	TestEvery:    5,
}

// Split holds out every n-th row. The split depends only on row order.
func Split(ds *Dataset, every int) (train, test *Dataset, err error) {
	rows, cols := ds.X.Dims()
	if every < 2 {
		return nil, nil, fmt.Errorf("test split interval must be at least 2, got %d", every)
	}
	nTest := rows / every
	if nTest == 0 || rows-nTest == 0 {
		return nil, nil, fmt.Errorf("dataset of %d rows is too small to split", rows)
	}
	trX := mat.NewDense(rows-nTest, cols, nil)
	teX := mat.NewDense(nTest, cols, nil)
	var trY, teY []float64
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, ds.X)
		if i%every == every-1 && len(teY) < nTest {
			teX.SetRow(len(teY), row)
			teY = append(teY, ds.Y[i])
		} else {
			trX.SetRow(len(trY), row)
			trY = append(trY, ds.Y[i])
		}
	}
	return &Dataset{Features: ds.Features, X: trX, Y: trY},
		&Dataset{Features: ds.Features, X: teX, Y: teY}, nil
}

// TrainLogistic fits an L2-regularised logistic regression with batch
// gradient descent. Labels must be 0 or 1.
func TrainLogistic(x *mat.Dense, y []float64, cfg TrainConfig) (*prediction.LogisticRegression, error) {
	n, c := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%d rows but %d labels", n, len(y))
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return nil, errors.New("labels must be 0 or 1")
		}
	}

	w := mat.NewVecDense(c, nil)
	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(c, nil)
	var b float64
	for it := 0; it < cfg.Iterations; it++ {
		z.MulVec(x, w)
		var sum float64
		for i := 0; i < n; i++ {
			r := prediction.Sigmoid(z.AtVec(i)+b) - y[i]
			resid.SetVec(i, r)
			sum += r
		}
		grad.MulVec(x.T(), resid)
		grad.ScaleVec(1/float64(n), grad)
		grad.AddScaledVec(grad, cfg.L2, w)
		w.AddScaledVec(w, -cfg.LearningRate, grad)
		b -= cfg.LearningRate * sum / float64(n)
	}

	coef := make([]float64, c)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	return &prediction.LogisticRegression{
		Kind:         prediction.KindLogisticRegression,
		Coefficients: coef,
		Intercept:    b,
		ClassLabels:  []int{0, 1},
	}, nil
}

// Evaluate scores the classifier on already scaled rows.
func Evaluate(clf prediction.Classifier, x *mat.Dense, y []float64) (prediction.Performance, error) {
	n, _ := x.Dims()
	scores := make([]float64, n)
	var tp, fp, tn, fn float64
	for i := 0; i < n; i++ {
		proba, err := clf.PredictProba(mat.Row(nil, i, x))
		if err != nil {
			return prediction.Performance{}, err
		}
		scores[i] = proba[1]
		predicted := proba[1] >= 0.5
		switch {
		case predicted && y[i] == 1:
			tp++
		case predicted:
			fp++
		case y[i] == 1:
			fn++
		default:
			tn++
		}
	}

	var p prediction.Performance
	if n > 0 {
		p.Accuracy = (tp + tn) / float64(n)
	}
	if tp+fp > 0 {
		p.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		p.Recall = tp / (tp + fn)
	}
	if p.Precision+p.Recall > 0 {
		p.F1Score = 2 * p.Precision * p.Recall / (p.Precision + p.Recall)
	}
	p.AUC = AUC(scores, y)
	return p, nil
}

// AUC is the area under the ROC curve computed from the Mann-Whitney U
// statistic. Tied scores share their average rank.
func AUC(scores, y []float64) float64 {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var pos, neg, rankSum float64
	for i, v := range y {
		if v == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

func applyScaler(s *prediction.Scaler, x *mat.Dense) (*mat.Dense, error) {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row, err := s.Transform(mat.Row(nil, i, x))
		if err != nil {
			return nil, err
		}
		out.SetRow(i, row)
	}
	return out, nil
}
