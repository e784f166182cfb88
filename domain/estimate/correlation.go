package estimate

// Correlation encodes the fixed dependence structure between the seven
// sliders, in canonical slider order. Symmetric and strictly diagonally
// dominant, hence positive definite. Not user-configurable.
//
// Reading guide: budget and schedule flexibility move together; scope
// certainty trades off against scope reduction and rework; rework erodes
// every flexibility lever.
var correlation = [SliderCount][SliderCount]float64{
	//  budget  sched  scopeC scopeR rework  risk   conf
	{1.00, 0.30, 0.10, 0.15, -0.10, 0.15, 0.05},  // budgetFlexibility
	{0.30, 1.00, 0.10, 0.15, -0.15, 0.10, 0.05},  // scheduleFlexibility
	{0.10, 0.10, 1.00, -0.25, -0.20, 0.05, 0.20}, // scopeCertainty
	{0.15, 0.15, -0.25, 1.00, 0.10, 0.20, -0.05}, // scopeReductionAllowance
	{-0.10, -0.15, -0.20, 0.10, 1.00, 0.15, -0.10}, // reworkPercentage
	{0.15, 0.10, 0.05, 0.20, 0.15, 1.00, 0.10},   // riskTolerance
	{0.05, 0.05, 0.20, -0.05, -0.10, 0.10, 1.00}, // userConfidence
}

// CorrelationMatrix returns a copy of the fixed 7x7 slider correlation matrix
func CorrelationMatrix() [SliderCount][SliderCount]float64 {
	return correlation
}
