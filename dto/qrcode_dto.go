package dto

type CreateQRCodeDTO struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=url text contact"`
	Size    int    `json:"size" binding:"omitempty,min=64,max=1024"`
	Color   string `json:"color" binding:"omitempty,hexadecimal,len=6"`
}
