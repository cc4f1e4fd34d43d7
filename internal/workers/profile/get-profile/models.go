package getprofile

import "agrimandi-workers/internal/models"

type Input struct {
	Username string `json:"username"`
}

type Output struct {
	Profile   models.FarmerProfile `json:"profile"`
	FromCache bool                 `json:"fromCache"`
}
