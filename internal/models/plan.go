package models

// FreePlan тариф, на который переводятся истёкшие подписки.
const FreePlan = "Free Plan"

// trialEligible тарифы, для которых доступен бесплатный пробный период.
var trialEligible = map[string]struct{}{
	"Standard": {},
	"Premium":  {},
}

// TrialEligible сообщает, можно ли начать пробный период на тарифе.
func TrialEligible(plan string) bool {
	_, ok := trialEligible[plan]
	return ok
}

// TrialDays возвращает длительность пробного периода в днях.
func TrialDays(plan string) int {
	if TrialEligible(plan) {
		return 10
	}
	return 14
}
