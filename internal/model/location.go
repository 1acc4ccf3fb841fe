package model

// State is static reference data used by the pickup form.
type State struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	StateID   string `json:"stateId" yaml:"stateId" gorm:"size:64;not null;uniqueIndex"`
	StateName string `json:"stateName" yaml:"stateName" gorm:"size:255;not null"`
}

// City belongs to a State through StateID.
type City struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	CityID   string `json:"cityId" yaml:"cityId" gorm:"size:64;not null;uniqueIndex"`
	CityName string `json:"cityName" yaml:"cityName" gorm:"size:255;not null"`
	StateID  string `json:"stateId" yaml:"stateId" gorm:"size:64;not null;index"`
}
