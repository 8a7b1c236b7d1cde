package reft

import (
	"github.com/peft-ml/peft/internal/logger"
	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/tensor"
)

// CountParameters returns the number of elements across all parameters
// of a module that participate in gradient computation.
func CountParameters[B tensor.Backend](m nn.Module[B]) int {
	total := 0
	for _, p := range m.Parameters() {
		if p.Trainable() {
			total += p.NumElements()
		}
	}
	return total
}

// ParameterReport holds the parameter accounting of a ReftModel.
type ParameterReport struct {
	TrainableInterventionParameters int
	TrainableModelParameters        int
	AllModelParameters              int
	TotalTrainableParameters        int
	TrainablePercentage             float64
}

// ReftModel wraps a base model plus interventions and adds
// trainable-parameter accounting on top of the intervenable mechanics.
type ReftModel[B tensor.Backend] struct {
	*IntervenableModel[B]

	log logger.Logger
}

// NewReftModel creates a ReftModel over a base model and an
// interventions registry. A nil log falls back to the default sink.
func NewReftModel[B tensor.Backend](model nn.Module[B], interventions map[string][]nn.Module[B], log logger.Logger) *ReftModel[B] {
	if log == nil {
		log = logger.Default()
	}
	return &ReftModel[B]{
		IntervenableModel: NewIntervenable(model, interventions),
		log:               log,
	}
}

// Load restores a saved checkpoint into model and returns it.
// Delegates entirely to the intervenable checkpoint mechanism.
func Load[B tensor.Backend](dir string, model *ReftModel[B]) (*ReftModel[B], error) {
	if _, err := LoadIntervenable(dir, model.IntervenableModel); err != nil {
		return nil, err
	}
	return model, nil
}

// TrainableParameters computes the parameter accounting:
//   - trainable intervention parameters: summed over the first module of
//     every registered intervention chain
//   - trainable and total base-model parameters
//   - their combined trainable total and percentage
//
// A base model with zero parameters is a caller precondition violation;
// the percentage degenerates (division by zero) rather than being
// guarded here.
func (m *ReftModel[B]) TrainableParameters() ParameterReport {
	var report ParameterReport

	for _, chain := range m.Interventions() {
		if len(chain) == 0 {
			continue
		}
		report.TrainableInterventionParameters += CountParameters(chain[0])
	}

	for _, p := range m.Model().Parameters() {
		n := p.NumElements()
		report.AllModelParameters += n
		if p.Trainable() {
			report.TrainableModelParameters += n
		}
	}

	report.TotalTrainableParameters = report.TrainableInterventionParameters + report.TrainableModelParameters
	report.TrainablePercentage = 100 * float64(report.TotalTrainableParameters) / float64(report.AllModelParameters)
	return report
}

// PrintTrainableParameters computes the parameter accounting and emits
// it to the informational log.
func (m *ReftModel[B]) PrintTrainableParameters() {
	report := m.TrainableParameters()
	m.log.Info("trainable parameters",
		"trainable_intervention_parameters", report.TrainableInterventionParameters,
		"trainable_model_parameters", report.TrainableModelParameters,
		"all_model_parameters", report.AllModelParameters,
		"total_trainable_parameters", report.TotalTrainableParameters,
		"trainable_percentage", report.TrainablePercentage,
	)
}
