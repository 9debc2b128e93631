package entity

type Preference struct {
	Key   string
	Value string
}
