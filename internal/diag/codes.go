package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Ошибки входных данных (typed module interchange)
	InpInfo          Code = 1000
	InpMalformed     Code = 1001
	InpUnknownKind   Code = 1002
	InpMissingField  Code = 1003
	InpMissingSource Code = 1004
	InpDuplicateName Code = 1005
	InpUnknownModule Code = 1006

	// Генерация кода
	GenInfo            Code = 2000
	GenUnsupported     Code = 2001
	GenFloatOutOfRange Code = 2002
	GenIntOutOfRange   Code = 2003
	GenInvalidInput    Code = 2004

	// I/O
	IOLoadFileError  Code = 4000
	IOWriteFileError Code = 4001
	IOCacheError     Code = 4002

	// Project
	ProjInfo            Code = 5000
	ProjMissingManifest Code = 5001
	ProjInvalidManifest Code = 5002
	ProjDuplicateModule Code = 5003
	ProjSelfImport      Code = 5004
	ProjImportCycle     Code = 5005
	ProjDependencyFailed Code = 5006

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		InpInfo:             "Input information",
		InpMalformed:        "Malformed typed module",
		InpUnknownKind:      "Unknown node kind",
		InpMissingField:     "Missing required field",
		InpMissingSource:    "Source file not found",
		InpDuplicateName:    "Duplicate module name",
		InpUnknownModule:    "Import of unknown module",
		GenInfo:             "Generation information",
		GenUnsupported:      "Unsupported on the nix target",
		GenFloatOutOfRange:  "Float literal out of range",
		GenIntOutOfRange:    "Integer literal out of range",
		GenInvalidInput:     "Invalid typed tree",
		IOLoadFileError:     "I/O load file error",
		IOWriteFileError:    "I/O write file error",
		IOCacheError:        "Cache error",
		ProjInfo:            "Project information",
		ProjMissingManifest: "Missing project manifest",
		ProjInvalidManifest: "Invalid project manifest",
		ProjDuplicateModule: "Duplicate module",
		ProjSelfImport:      "Module imports itself",
		ProjImportCycle:     "Import cycle",
		ProjDependencyFailed: "Dependency module has errors",
		ObsInfo:             "Observability information",
		ObsTimings:          "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
