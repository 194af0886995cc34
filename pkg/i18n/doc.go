// Package i18n loads translation dictionaries and resolves localized labels.
//
// Dictionaries are authored as a list of entries, one per key, each carrying
// an "id" plus one field per language:
//
//	- id: draft_recover_cancel
//	  en: Cancel
//	  fr: Annuler
//
// Pivot turns that list into a Dictionary indexed by language then key,
// which is what translators look up at runtime.
package i18n
