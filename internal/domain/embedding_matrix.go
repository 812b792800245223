package domain

// EmbeddingMatrix - плотная матрица эмбеддингов, хранимая построчно (row-major).
// Все строки имеют одинаковое число столбцов; при Rows == 0 Cols тоже 0.
type EmbeddingMatrix struct {
	rows int
	cols int
	data []float32
}

// NewEmbeddingMatrix создаёт матрицу поверх плоского буфера. Буфер передаётся во владение матрице.
// Проверка len(data) == rows*cols остаётся на вызывающей стороне.
func NewEmbeddingMatrix(rows, cols int, data []float32) *EmbeddingMatrix {
	if rows == 0 {
		cols = 0
		data = nil
	}

	return &EmbeddingMatrix{
		rows: rows,
		cols: cols,
		data: data,
	}
}

func (m *EmbeddingMatrix) Rows() int {
	return m.rows
}

func (m *EmbeddingMatrix) Cols() int {
	return m.cols
}

// Shape возвращает (rows, cols).
func (m *EmbeddingMatrix) Shape() (int, int) {
	return m.rows, m.cols
}

// At возвращает элемент (i, j). Паникует при выходе за границы, как и срез.
func (m *EmbeddingMatrix) At(i, j int) float32 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("domain: EmbeddingMatrix index out of range")
	}

	return m.data[i*m.cols+j]
}

// Row возвращает копию i-й строки.
func (m *EmbeddingMatrix) Row(i int) []float32 {
	if i < 0 || i >= m.rows {
		panic("domain: EmbeddingMatrix row out of range")
	}

	row := make([]float32, m.cols)
	copy(row, m.data[i*m.cols:(i+1)*m.cols])
	return row
}
