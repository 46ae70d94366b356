package consultation

import (
	"errors"
	"math"
	"strings"
)

// Sex values accepted by the calculator.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Goal values.
const (
	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

// BMI categories.
const (
	CategoryUnderweight = "Underweight"
	CategoryNormal      = "Normal"
	CategoryOverweight  = "Overweight"
	CategoryObese       = "Obese"
)

// Calorie adjustments applied to maintenance for each goal.
const (
	LoseAdjustment = -500
	GainAdjustment = 300
	MinCalories    = 1200
)

// Macro split as a share of daily calories.
const (
	ProteinShare = 0.30
	CarbsShare   = 0.40
	FatShare     = 0.30
)

// activityFactors multiply BMR into total daily energy expenditure.
var activityFactors = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Domain errors
var (
	ErrInvalidWeight   = errors.New("weight must be between 20 and 400 kg")
	ErrInvalidHeight   = errors.New("height must be between 50 and 260 cm")
	ErrInvalidAge      = errors.New("age must be between 13 and 120")
	ErrInvalidSex      = errors.New("sex must be one of: male, female")
	ErrInvalidActivity = errors.New("activity must be one of: sedentary, light, moderate, active, very_active")
	ErrInvalidGoal     = errors.New("goal must be one of: lose, maintain, gain")
)

// CalculatorInput is what the visitor enters into the health calculator.
type CalculatorInput struct {
	Age                int     `json:"age"`
	Sex                string  `json:"sex"`
	WeightKg           float64 `json:"weightKg"`
	HeightCm           float64 `json:"heightCm"`
	Activity           string  `json:"activity"`
	Goal               string  `json:"goal"`
	DietaryRestriction string  `json:"dietaryRestriction"`
}

// Macros holds the daily macro targets in grams.
type Macros struct {
	ProteinG int `json:"proteinG"`
	CarbsG   int `json:"carbsG"`
	FatG     int `json:"fatG"`
}

// HealthMetrics is the calculator output carried into a consultation request.
type HealthMetrics struct {
	BMI                float64 `json:"bmi"`
	Category           string  `json:"category"`
	BMR                int     `json:"bmr"`
	TDEE               int     `json:"tdee"`
	DailyCalories      int     `json:"dailyCalories"`
	Macros             Macros  `json:"macros"`
	Goal               string  `json:"goal"`
	DietaryRestriction string  `json:"dietaryRestriction"`
}

// Validate checks the calculator input ranges.
// PRE: none
// POST: Returns nil if Calculate can run on the input
func (in CalculatorInput) Validate() error {
	if in.WeightKg < 20 || in.WeightKg > 400 {
		return ErrInvalidWeight
	}
	if in.HeightCm < 50 || in.HeightCm > 260 {
		return ErrInvalidHeight
	}
	if in.Age < 13 || in.Age > 120 {
		return ErrInvalidAge
	}
	switch strings.ToLower(in.Sex) {
	case SexMale, SexFemale:
	default:
		return ErrInvalidSex
	}
	if _, ok := activityFactors[strings.ToLower(in.Activity)]; !ok {
		return ErrInvalidActivity
	}
	switch strings.ToLower(in.Goal) {
	case GoalLose, GoalMaintain, GoalGain:
	default:
		return ErrInvalidGoal
	}
	return nil
}

// BMI returns body mass index rounded to one decimal place.
func BMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10
}

// Category classifies a BMI value.
func Category(bmi float64) string {
	switch {
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	}
	return CategoryObese
}

// Calculate derives health metrics using Mifflin-St Jeor.
// PRE: in passes Validate
// POST: DailyCalories >= MinCalories; macros sum to roughly DailyCalories
// INVARIANT: deterministic, no I/O
func Calculate(in CalculatorInput) (HealthMetrics, error) {
	if err := in.Validate(); err != nil {
		return HealthMetrics{}, err
	}
	sex := strings.ToLower(in.Sex)
	goal := strings.ToLower(in.Goal)

	bmr := 10*in.WeightKg + 6.25*in.HeightCm - 5*float64(in.Age)
	if sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	tdee := int(math.Round(bmr * activityFactors[strings.ToLower(in.Activity)]))

	calories := tdee
	switch goal {
	case GoalLose:
		calories += LoseAdjustment
	case GoalGain:
		calories += GainAdjustment
	}
	calories = max(calories, MinCalories)

	bmi := BMI(in.WeightKg, in.HeightCm)
	return HealthMetrics{
		BMI:           bmi,
		Category:      Category(bmi),
		BMR:           int(math.Round(bmr)),
		TDEE:          tdee,
		DailyCalories: calories,
		Macros: Macros{
			ProteinG: int(math.Round(float64(calories) * ProteinShare / 4)),
			CarbsG:   int(math.Round(float64(calories) * CarbsShare / 4)),
			FatG:     int(math.Round(float64(calories) * FatShare / 9)),
		},
		Goal:               goal,
		DietaryRestriction: strings.TrimSpace(in.DietaryRestriction),
	}, nil
}
