package ui

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyDownloadsTitle    = "downloads_title"
	KeyFile              = "file"
	KeyNewTab            = "new_tab"
	KeySavePage          = "save_page"
	KeySaveImage         = "save_image"
	KeySettings          = "settings"
	KeyLanguage          = "language"
	KeyDownloads         = "downloads"
	KeyBack              = "back"
	KeyForward           = "forward"
	KeyReload            = "reload"
	KeyEnterAddress      = "enter_address"
	KeyPause             = "pause"
	KeyResume            = "resume"
	KeyCancel            = "cancel"
	KeyOpen              = "open"
	KeyFolder            = "folder"
	KeySave              = "save"
	KeyBrowse            = "browse"
	KeyDownloadDirectory = "download_directory"
	KeyHomePage          = "home_page"
	KeySearchURL         = "search_url"
	KeyAskSaveLocation   = "ask_save_location"
	KeyNotifyOnComplete  = "notify_on_complete"
	KeySettingsSaved     = "settings_saved"
	KeyDownloadCompleted = "download_completed"
	KeyConfirmCancel     = "confirm_cancel"
	KeyConfirmCancelText = "confirm_cancel_text"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyPageLoadFailed    = "page_load_failed"
	KeyPageSaved         = "page_saved"
	KeyPageSaveFailed    = "page_save_failed"
	KeyLoading           = "loading"
	KeyStateRequested    = "state_requested"
	KeyStateAccepted     = "state_accepted"
	KeyStateInProgress   = "state_in_progress"
	KeyStatePaused       = "state_paused"
	KeyStateCompleted    = "state_completed"
	KeyStateCancelled    = "state_cancelled"
	KeyStateInterrupted  = "state_interrupted"
	KeySizeUnknown       = "size_unknown"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		lang = "en"
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
	}
}

func (l *Localization) initializeTexts() {
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "Web Browser",
		KeyDownloadsTitle:    "Downloads",
		KeyFile:              "File",
		KeyNewTab:            "New tab",
		KeySavePage:          "Save page",
		KeySaveImage:         "Save image",
		KeySettings:          "Settings",
		KeyLanguage:          "Language",
		KeyDownloads:         "Downloads",
		KeyBack:              "Back",
		KeyForward:           "Forward",
		KeyReload:            "Reload",
		KeyEnterAddress:      "Enter address or search",
		KeyPause:             "Pause",
		KeyResume:            "Resume",
		KeyCancel:            "Cancel",
		KeyOpen:              "Open",
		KeyFolder:            "Folder",
		KeySave:              "Save",
		KeyBrowse:            "Browse",
		KeyDownloadDirectory: "Download directory",
		KeyHomePage:          "Home page",
		KeySearchURL:         "Search URL (%s is the query)",
		KeyAskSaveLocation:   "Ask where to save each file",
		KeyNotifyOnComplete:  "Notify when a download completes",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyDownloadCompleted: "Download completed",
		KeyConfirmCancel:     "Cancel download",
		KeyConfirmCancelText: "Cancel the download of %s?",
		KeyErrorOpeningFile:  "Error opening file",
		KeyPageLoadFailed:    "Failed to load page",
		KeyPageSaved:         "Page saved",
		KeyPageSaveFailed:    "Failed to save page",
		KeyLoading:           "Loading...",
		KeyStateRequested:    "Requested",
		KeyStateAccepted:     "Starting",
		KeyStateInProgress:   "In progress",
		KeyStatePaused:       "Paused",
		KeyStateCompleted:    "Completed",
		KeyStateCancelled:    "Cancelled",
		KeyStateInterrupted:  "Interrupted",
		KeySizeUnknown:       "size unknown",
	}

	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "Веб-браузер",
		KeyDownloadsTitle:    "Загрузки",
		KeyFile:              "Файл",
		KeyNewTab:            "Новая вкладка",
		KeySavePage:          "Сохранить страницу",
		KeySaveImage:         "Сохранить изображение",
		KeySettings:          "Настройки",
		KeyLanguage:          "Язык",
		KeyDownloads:         "Загрузки",
		KeyBack:              "Назад",
		KeyForward:           "Вперёд",
		KeyReload:            "Обновить",
		KeyEnterAddress:      "Введите адрес или запрос",
		KeyPause:             "Пауза",
		KeyResume:            "Продолжить",
		KeyCancel:            "Отмена",
		KeyOpen:              "Открыть",
		KeyFolder:            "Папка",
		KeySave:              "Сохранить",
		KeyBrowse:            "Обзор",
		KeyDownloadDirectory: "Папка загрузки",
		KeyHomePage:          "Домашняя страница",
		KeySearchURL:         "Адрес поиска (%s заменяется запросом)",
		KeyAskSaveLocation:   "Спрашивать, куда сохранять файл",
		KeyNotifyOnComplete:  "Уведомлять о завершении загрузки",
		KeySettingsSaved:     "Настройки успешно сохранены!",
		KeyDownloadCompleted: "Загрузка завершена",
		KeyConfirmCancel:     "Отменить загрузку",
		KeyConfirmCancelText: "Отменить загрузку %s?",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeyPageLoadFailed:    "Не удалось загрузить страницу",
		KeyPageSaved:         "Страница сохранена",
		KeyPageSaveFailed:    "Не удалось сохранить страницу",
		KeyLoading:           "Загрузка...",
		KeyStateRequested:    "Запрошено",
		KeyStateAccepted:     "Запуск",
		KeyStateInProgress:   "Загружается",
		KeyStatePaused:       "Приостановлено",
		KeyStateCompleted:    "Завершено",
		KeyStateCancelled:    "Отменено",
		KeyStateInterrupted:  "Прервано",
		KeySizeUnknown:       "размер неизвестен",
	}
}
