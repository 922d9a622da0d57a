package engine

import "regexp"

// templatePattern — {{ slug.path.to.field }}. Первый сегмент — slug узла,
// дальше сегменты из букв, цифр, '_' и '-' (индексы массивов — цифры).
var templatePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][\w-]*(?:\.[\w-]+)*)\s*\}\}`)

// singlePattern — строка целиком из одного плейсхолдера.
var singlePattern = regexp.MustCompile(`^\s*\{\{\s*([A-Za-z_][\w-]*(?:\.[\w-]+)*)\s*\}\}\s*$`)

// idRefPattern — плейсхолдер, корень которого может быть ID узла
// (ID может начинаться с цифры, например UUID).
var idRefPattern = regexp.MustCompile(`\{\{\s*([\w-]+)((?:\.[\w-]+)*)\s*\}\}`)
