package schema

import (
	"strings"
)

const DefaultCharset = "utf8mb4"

func unicodeCollations(cs string, extra ...string) []string {
	langs := []string{"general_ci", "bin", "unicode_ci", "icelandic_ci", "latvian_ci",
		"romanian_ci", "slovenian_ci", "polish_ci", "estonian_ci", "spanish_ci", "swedish_ci",
		"turkish_ci", "czech_ci", "danish_ci", "lithuanian_ci", "slovak_ci", "spanish2_ci",
		"roman_ci", "persian_ci", "esperanto_ci", "hungarian_ci", "sinhala_ci", "german2_ci",
		"croatian_ci", "unicode_520_ci"}
	langs = append(langs, extra...)
	colls := make([]string, 0, len(langs))
	for _, l := range langs {
		colls = append(colls, cs+"_"+l)
	}
	return colls
}

// collations maps a mysql character set to its collations.
var collations = map[string][]string{
	"big5":  {"big5_chinese_ci", "big5_bin"},
	"dec8":  {"dec8_swedish_ci", "dec8_bin"},
	"cp850": {"cp850_general_ci", "cp850_bin"},
	"hp8":   {"hp8_english_ci", "hp8_bin"},
	"koi8r": {"koi8r_general_ci", "koi8r_bin"},
	"latin1": {"latin1_german1_ci", "latin1_swedish_ci", "latin1_danish_ci",
		"latin1_german2_ci", "latin1_bin", "latin1_general_ci", "latin1_general_cs",
		"latin1_spanish_ci"},
	"latin2": {"latin2_czech_cs", "latin2_general_ci", "latin2_hungarian_ci",
		"latin2_croatian_ci", "latin2_bin"},
	"swe7":   {"swe7_swedish_ci", "swe7_bin"},
	"ascii":  {"ascii_general_ci", "ascii_bin"},
	"ujis":   {"ujis_japanese_ci", "ujis_bin"},
	"sjis":   {"sjis_japanese_ci", "sjis_bin"},
	"hebrew": {"hebrew_general_ci", "hebrew_bin"},
	"tis620": {"tis620_thai_ci", "tis620_bin"},
	"euckr":  {"euckr_korean_ci", "euckr_bin"},
	"koi8u":  {"koi8u_general_ci", "koi8u_bin"},
	"gb2312": {"gb2312_chinese_ci", "gb2312_bin"},
	"greek":  {"greek_general_ci", "greek_bin"},
	"cp1250": {"cp1250_general_ci", "cp1250_czech_cs", "cp1250_croatian_ci", "cp1250_bin",
		"cp1250_polish_ci"},
	"gbk":      {"gbk_chinese_ci", "gbk_bin"},
	"latin5":   {"latin5_turkish_ci", "latin5_bin"},
	"armscii8": {"armscii8_general_ci", "armscii8_bin"},
	"utf8":     unicodeCollations("utf8", "vietnamese_ci", "general_mysql500_ci"),
	"ucs2":     unicodeCollations("ucs2", "general_mysql500_ci"),
	"cp866":    {"cp866_general_ci", "cp866_bin"},
	"keybcs2":  {"keybcs2_general_ci", "keybcs2_bin"},
	"macce":    {"macce_general_ci", "macce_bin"},
	"macroman": {"macroman_general_ci", "macroman_bin"},
	"cp852":    {"cp852_general_ci", "cp852_bin"},
	"latin7": {"latin7_general_ci", "latin7_estonian_cs", "latin7_general_cs",
		"latin7_bin"},
	"utf8mb4": unicodeCollations("utf8mb4", "vietnamese_ci"),
	"cp1251": {"cp1251_bulgarian_ci", "cp1251_ukrainian_ci", "cp1251_bin",
		"cp1251_general_ci", "cp1251_general_cs"},
	"utf16":   unicodeCollations("utf16"),
	"utf16le": {"utf16le_general_ci", "utf16le_bin"},
	"cp1256":  {"cp1256_general_ci", "cp1256_bin"},
	"cp1257":  {"cp1257_lithuanian_ci", "cp1257_bin", "cp1257_general_ci"},
	"utf32":   unicodeCollations("utf32"),
	"binary":  {"binary"},
	"geostd8": {"geostd8_general_ci", "geostd8_bin"},
	"cp932":   {"cp932_japanese_ci", "cp932_bin"},
	"eucjpms": {"eucjpms_japanese_ci", "eucjpms_bin"},
	"gb18030": {"gb18030_chinese_ci", "gb18030_bin", "gb18030_unicode_520_ci"},
}

// Collations returns the collations of charset, or nil.
func Collations(charset string) []string {
	return collations[strings.ToLower(charset)]
}

// Collation returns name if it is a known collation, otherwise "".
func Collation(name string) string {
	name = strings.ToLower(name)
	cs := name
	if idx := strings.IndexByte(name, '_'); idx >= 0 {
		cs = name[:idx]
	}
	for _, c := range collations[cs] {
		if c == name {
			return name
		}
	}
	return ""
}

// Charset returns charset if it is known, otherwise DefaultCharset.
func Charset(charset string) string {
	charset = strings.ToLower(charset)
	if _, ok := collations[charset]; ok {
		return charset
	}
	return DefaultCharset
}
