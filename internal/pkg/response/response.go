package response

import "github.com/gin-gonic/gin"

// Helpers de resposta JSON usados por todos os handlers.

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func Error(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func ErrorWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ErrorWithDetails segue o contrato {error, details} dos endpoints de proxy:
// details carrega o corpo de erro do upstream sem modificação.
func ErrorWithDetails(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, gin.H{"error": message, "details": details})
}
