package env

import (
	"os"

	"github.com/Lina3386/monk-finance/internal/config"
)

const parserCategoriesFileEnvName = "PARSER_CATEGORIES_FILE"

type parserConfig struct {
	categoriesFile string
}

func NewParserConfig() (config.ParserConfig, error) {
	return &parserConfig{
		categoriesFile: os.Getenv(parserCategoriesFileEnvName),
	}, nil
}

// CategoriesFile - empty means the built-in table
func (cfg *parserConfig) CategoriesFile() string {
	return cfg.categoriesFile
}
