package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func marshalMetadata(metadata map[string]string) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
