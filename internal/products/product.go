package products

// Product — урезанное описание товара из внешнего поиска. Хранится
// в кэше как JSON-массив; первый элемент массива считается лучшим
// совпадением по запросу.
type Product struct {
	ASIN          string  `json:"asin"`
	Title         string  `json:"title"`
	Price         string  `json:"price"`
	OriginalPrice *string `json:"original_price,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Rating        *string `json:"rating,omitempty"`
	ReviewsCount  *int    `json:"reviews_count,omitempty"`
	URL           string  `json:"url"`
	PhotoURL      string  `json:"photo_url"`
	IsPrime       bool    `json:"is_prime"`
}

// Resolution — результат поиска товара по одной позиции списка.
// Found=false означает, что поиск прошел, но ничего не нашел; такая
// позиция остается в выдаче с пустым товаром.
type Resolution struct {
	Query     string   `json:"query"`
	Found     bool     `json:"found"`
	FromCache bool     `json:"from_cache"`
	Product   *Product `json:"product,omitempty"`
	Err       error    `json:"-"`
}
