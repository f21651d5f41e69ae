package gridhouse

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/dataset"
	"github.com/YuminosukeSato/gridhouse/pkg/log"
	"github.com/YuminosukeSato/gridhouse/preprocessing"
	"github.com/YuminosukeSato/gridhouse/sweep"
)

// Prepared holds every stage output of the feature-preparation
// pipeline. The struct is built in one pass by Prepare; the fitted
// imputer and encoder it carries were constructed from the training
// split only and cannot be re-fitted afterwards.
type Prepared struct {
	// FeatureSchema is the shared schema of the feature tables, target
	// column removed.
	FeatureSchema *dataset.Schema

	// Imputer and Encoder are the fitted preprocessing value objects.
	Imputer *preprocessing.KNNImputer
	Encoder *preprocessing.OneHotEncoder

	// Scaler is the standardizer fitted on the training matrix, or nil
	// when scaling was not requested.
	Scaler *preprocessing.StandardScaler

	// FeatureNames names the encoded matrix columns.
	FeatureNames []string

	// Design matrices per split. TestX is nil when no test table was
	// given.
	TrainX *mat.Dense
	ValX   *mat.Dense
	TestX  *mat.Dense

	// Target vectors for the train and validation splits.
	TrainY *mat.VecDense
	ValY   *mat.VecDense

	// Fingerprint identifies the exact train/validation table pair the
	// pipeline was fitted on.
	Fingerprint string
}

// SweepData adapts the prepared matrices for the sweep engine.
func (p *Prepared) SweepData() sweep.Data {
	return sweep.Data{
		TrainX:      p.TrainX,
		TrainY:      p.TrainY,
		ValX:        p.ValX,
		ValY:        p.ValY,
		Fingerprint: p.Fingerprint,
	}
}

// Prepare runs the leakage-safe feature pipeline: deterministic
// train/validation split, KNN imputation, one-hot encoding, and matrix
// assembly. Every fit happens on the training split; validation and
// test tables only ever pass through the already-fitted transformers.
//
// testTable is optional and may carry the target column or not; when
// present it must otherwise match the training schema exactly.
func Prepare(trainTable, testTable *dataset.Table, cfg sweep.Config) (*Prepared, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("prepare")

	// Split first so nothing fitted below ever sees a validation row.
	trainSplit, valSplit, err := trainTable.Split(cfg.SplitRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}
	fingerprint := dataset.PairFingerprint(trainSplit, valSplit)

	logger.Info("split table",
		log.PhaseKey, log.PhaseSplit,
		log.SamplesKey, trainTable.NumRows(),
		log.SplitRatioKey, cfg.SplitRatio,
		log.RandomSeedKey, cfg.Seed,
		log.FingerprintKey, fingerprint,
	)

	trainY, err := trainSplit.TargetVector(cfg.Target)
	if err != nil {
		return nil, err
	}
	valY, err := valSplit.TargetVector(cfg.Target)
	if err != nil {
		return nil, err
	}

	trainFeat, err := trainSplit.DropColumn(cfg.Target)
	if err != nil {
		return nil, err
	}
	valFeat, err := valSplit.DropColumn(cfg.Target)
	if err != nil {
		return nil, err
	}

	var testFeat *dataset.Table
	if testTable != nil {
		testFeat = testTable
		if testTable.Schema().ColumnIndex(cfg.Target) >= 0 {
			testFeat, err = testTable.DropColumn(cfg.Target)
			if err != nil {
				return nil, err
			}
		}
		if err := dataset.CheckSchemas("Prepare", trainFeat.Schema(), testFeat.Schema()); err != nil {
			return nil, err
		}
	}

	imputer, err := preprocessing.FitImputer(trainFeat, cfg.ImputerK)
	if err != nil {
		return nil, err
	}

	logger.Info("fitted imputer",
		log.PhaseKey, log.PhaseImputation,
		log.NeighborsKey, cfg.ImputerK,
		log.MissingCellsKey, trainFeat.MissingCells(),
	)

	trainImp, err := imputer.Transform(trainFeat)
	if err != nil {
		return nil, err
	}
	valImp, err := imputer.Transform(valFeat)
	if err != nil {
		return nil, err
	}
	var testImp *dataset.Table
	if testFeat != nil {
		testImp, err = imputer.Transform(testFeat)
		if err != nil {
			return nil, err
		}
	}

	encoder, err := preprocessing.FitEncoder(trainImp)
	if err != nil {
		return nil, err
	}

	logger.Info("fitted encoder",
		log.PhaseKey, log.PhaseEncoding,
		log.FeaturesKey, encoder.Width(),
	)

	trainX, err := encoder.Transform(trainImp)
	if err != nil {
		return nil, err
	}
	valX, err := encoder.Transform(valImp)
	if err != nil {
		return nil, err
	}
	var testX *mat.Dense
	if testImp != nil {
		testX, err = encoder.Transform(testImp)
		if err != nil {
			return nil, err
		}
	}

	var scaler *preprocessing.StandardScaler
	if cfg.Scale {
		scaler = preprocessing.NewStandardScalerDefault()
		if err := scaler.Fit(trainX); err != nil {
			return nil, err
		}
		if trainX, err = scaleMatrix(scaler, trainX); err != nil {
			return nil, err
		}
		if valX, err = scaleMatrix(scaler, valX); err != nil {
			return nil, err
		}
		if testX != nil {
			if testX, err = scaleMatrix(scaler, testX); err != nil {
				return nil, err
			}
		}
	}

	return &Prepared{
		FeatureSchema: trainFeat.Schema(),
		Imputer:       imputer,
		Encoder:       encoder,
		Scaler:        scaler,
		FeatureNames:  encoder.FeatureNames(),
		TrainX:        trainX,
		ValX:          valX,
		TestX:         testX,
		TrainY:        trainY,
		ValY:          valY,
		Fingerprint:   fingerprint,
	}, nil
}

// scaleMatrix applies a fitted scaler and keeps the dense concrete type.
func scaleMatrix(scaler *preprocessing.StandardScaler, X *mat.Dense) (*mat.Dense, error) {
	scaled, err := scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(scaled), nil
}
