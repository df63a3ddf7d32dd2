package dto

// ExportQuery selects what to export and how.
type ExportQuery struct {
	Kind   string `form:"kind,default=conversions" binding:"omitempty,oneof=conversions print_jobs"`
	Format string `form:"format,default=csv" binding:"omitempty,oneof=csv json xlsx"`
	Limit  int    `form:"limit,default=1000" binding:"omitempty,min=1,max=10000"`
}
